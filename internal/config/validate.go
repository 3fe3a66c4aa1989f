package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/distribution/reference"
)

// ValidProviders contains all supported compute providers.
var ValidProviders = map[string]bool{
	ProviderEC2:    true,
	ProviderHCloud: true,
}

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if !ValidProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be %q or %q", c.Provider, ProviderEC2, ProviderHCloud)
	}

	switch c.Provider {
	case ProviderEC2:
		if err := c.validateEC2(); err != nil {
			return fmt.Errorf("ec2 validation failed: %w", err)
		}
	case ProviderHCloud:
		if err := c.validateHCloud(); err != nil {
			return fmt.Errorf("hcloud validation failed: %w", err)
		}
	}

	if c.SSH.PrivateKeyPath == "" {
		return fmt.Errorf("ssh.private_key_path is required")
	}
	if c.SSH.ConnectAttempts < 1 {
		return fmt.Errorf("ssh.connect_attempts must be at least 1")
	}
	if c.Source.RepoURL == "" {
		return fmt.Errorf("source.repo_url is required")
	}

	if err := c.validateRegistry(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}

	if err := c.validateTimeouts(); err != nil {
		return fmt.Errorf("timeout validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateEC2() error {
	e := c.EC2
	if e.Region == "" {
		return fmt.Errorf("ec2.region is required")
	}
	if e.ImageID == "" {
		return fmt.Errorf("ec2.image_id is required")
	}
	if e.InstanceType == "" {
		return fmt.Errorf("ec2.instance_type is required")
	}
	if e.KeyName == "" {
		return fmt.Errorf("ec2.key_name is required")
	}
	if len(e.SecurityGroupIDs) == 0 {
		return fmt.Errorf("ec2.security_group_ids must not be empty")
	}
	price, err := strconv.ParseFloat(e.MaxPrice, 64)
	if err != nil || price <= 0 {
		return fmt.Errorf("ec2.max_price %q must be a positive number", e.MaxPrice)
	}
	return nil
}

func (c *Config) validateHCloud() error {
	if c.HCloud.Token == "" {
		return fmt.Errorf("hcloud.token is required (or set HCLOUD_TOKEN)")
	}
	if c.HCloud.ServerType == "" {
		return fmt.Errorf("hcloud.server_type is required")
	}
	return nil
}

func (c *Config) validateRegistry() error {
	r := c.Registry
	if r.Image == "" {
		return fmt.Errorf("registry.image is required")
	}

	named, err := reference.ParseNormalizedNamed(r.Image)
	if err != nil {
		return fmt.Errorf("invalid registry.image %q: %w", r.Image, err)
	}
	if !reference.IsNameOnly(named) {
		return fmt.Errorf("registry.image %q must not carry a tag or digest", r.Image)
	}

	for _, tag := range r.ExtraTags {
		if _, err := reference.WithTag(named, tag); err != nil {
			return fmt.Errorf("invalid extra tag %q: %w", tag, err)
		}
	}

	if r.Password != "" && r.Username == "" {
		return errors.New("registry.username is required when a password is set")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	t := c.Timeouts
	for name, d := range map[string]int64{
		"fulfillment": int64(t.Fulfillment),
		"running":     int64(t.Running),
		"boot_grace":  int64(t.BootGrace),
		"dial":        int64(t.Dial),
		"command":     int64(t.Command),
		"terminate":   int64(t.Terminate),
	} {
		if d < 0 {
			return fmt.Errorf("timeouts.%s must not be negative", name)
		}
	}
	if t.Terminate == 0 {
		return fmt.Errorf("timeouts.terminate must be positive")
	}
	return nil
}
