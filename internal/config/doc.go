// Package config defines the spotbuild configuration model.
//
// A [Config] is read from a YAML file (spotbuild.yaml by default), filled
// with defaults, overridden from the environment and validated. Secrets
// such as the registry password and the Hetzner token are normally
// supplied through the environment rather than the file.
package config
