package config

import (
	"os"
	"strconv"
	"time"
)

// Default values applied by Load.
const (
	DefaultSSHUser     = "ubuntu"
	DefaultSSHPort     = 22
	DefaultMaxPrice    = "0.01"
	DefaultCloneDir    = "app_repo"
	DefaultDockerfile  = "Dockerfile"
	DefaultContext     = "."
	DefaultHCloudImage = "ubuntu-24.04"

	DefaultFulfillmentTimeout = 10 * time.Minute
	DefaultRunningTimeout     = 10 * time.Minute
	DefaultBootGrace          = 30 * time.Second
	DefaultDialTimeout        = 30 * time.Second
	DefaultTerminateTimeout   = 1 * time.Minute
)

// applyDefaults fills every unset field that has a default.
func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderEC2
	}
	if c.EC2.MaxPrice == "" {
		c.EC2.MaxPrice = DefaultMaxPrice
	}
	if c.HCloud.Image == "" {
		c.HCloud.Image = DefaultHCloudImage
	}
	if c.SSH.User == "" {
		c.SSH.User = DefaultSSHUser
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
	if c.SSH.ConnectAttempts == 0 {
		c.SSH.ConnectAttempts = 1
	}
	if c.Source.CloneDir == "" {
		c.Source.CloneDir = DefaultCloneDir
	}
	if c.Build.Dockerfile == "" {
		c.Build.Dockerfile = DefaultDockerfile
	}
	if c.Build.Context == "" {
		c.Build.Context = DefaultContext
	}
	if c.Timeouts.Fulfillment == 0 {
		c.Timeouts.Fulfillment = DefaultFulfillmentTimeout
	}
	if c.Timeouts.Running == 0 {
		c.Timeouts.Running = DefaultRunningTimeout
	}
	if c.Timeouts.BootGrace == 0 {
		c.Timeouts.BootGrace = DefaultBootGrace
	}
	if c.Timeouts.Dial == 0 {
		c.Timeouts.Dial = DefaultDialTimeout
	}
	if c.Timeouts.Terminate == 0 {
		c.Timeouts.Terminate = DefaultTerminateTimeout
	}
}

// applyEnv overrides configuration from environment variables.
// Unset or unparsable variables leave the current value in place.
//
// Environment Variables:
//   - REGISTRY_USERNAME, REGISTRY_PASSWORD
//   - HCLOUD_TOKEN
//   - SPOTBUILD_PROVIDER
//   - SPOTBUILD_MAX_PRICE
//   - SPOTBUILD_SSH_KEY
//   - SPOTBUILD_TIMEOUT_FULFILLMENT, SPOTBUILD_TIMEOUT_RUNNING,
//     SPOTBUILD_TIMEOUT_BOOT_GRACE, SPOTBUILD_TIMEOUT_DIAL,
//     SPOTBUILD_TIMEOUT_COMMAND, SPOTBUILD_TIMEOUT_TERMINATE
//   - SPOTBUILD_SSH_CONNECT_ATTEMPTS
func (c *Config) applyEnv() {
	c.Registry.Username = parseString("REGISTRY_USERNAME", c.Registry.Username)
	c.Registry.Password = parseString("REGISTRY_PASSWORD", c.Registry.Password)
	c.HCloud.Token = parseString("HCLOUD_TOKEN", c.HCloud.Token)
	c.Provider = parseString("SPOTBUILD_PROVIDER", c.Provider)
	c.EC2.MaxPrice = parseString("SPOTBUILD_MAX_PRICE", c.EC2.MaxPrice)
	c.SSH.PrivateKeyPath = parseString("SPOTBUILD_SSH_KEY", c.SSH.PrivateKeyPath)
	c.SSH.ConnectAttempts = parseInt("SPOTBUILD_SSH_CONNECT_ATTEMPTS", c.SSH.ConnectAttempts)

	c.Timeouts.Fulfillment = parseDuration("SPOTBUILD_TIMEOUT_FULFILLMENT", c.Timeouts.Fulfillment)
	c.Timeouts.Running = parseDuration("SPOTBUILD_TIMEOUT_RUNNING", c.Timeouts.Running)
	c.Timeouts.BootGrace = parseDuration("SPOTBUILD_TIMEOUT_BOOT_GRACE", c.Timeouts.BootGrace)
	c.Timeouts.Dial = parseDuration("SPOTBUILD_TIMEOUT_DIAL", c.Timeouts.Dial)
	c.Timeouts.Command = parseDuration("SPOTBUILD_TIMEOUT_COMMAND", c.Timeouts.Command)
	c.Timeouts.Terminate = parseDuration("SPOTBUILD_TIMEOUT_TERMINATE", c.Timeouts.Terminate)
}

// parseString returns the environment variable if set, otherwise defaultVal.
func parseString(envVar, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
