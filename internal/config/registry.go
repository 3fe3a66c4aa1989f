package config

import "github.com/distribution/reference"

const dockerHubDomain = "docker.io"

// ImageName returns the fully qualified repository name,
// e.g. "docker.io/acme/api" for "acme/api".
func (r RegistryConfig) ImageName() string {
	named, err := reference.ParseNormalizedNamed(r.Image)
	if err != nil {
		return r.Image
	}
	return named.Name()
}

// Server returns the registry host to log in to. Empty means Docker Hub,
// which docker login targets by default.
func (r RegistryConfig) Server() string {
	named, err := reference.ParseNormalizedNamed(r.Image)
	if err != nil {
		return ""
	}
	if domain := reference.Domain(named); domain != dockerHubDomain {
		return domain
	}
	return ""
}
