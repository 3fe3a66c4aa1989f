package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEC2YAML = `
provider: ec2
ec2:
  region: us-east-1
  image_id: ami-0abcdef
  instance_type: t3.medium
  key_name: build-key
  security_group_ids: [sg-123]
ssh:
  private_key_path: /keys/build.pem
source:
  repo_url: https://github.com/acme/api.git
registry:
  image: acme/api
  username: acme
`

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validEC2YAML))
	require.NoError(t, err)

	assert.Equal(t, ProviderEC2, cfg.Provider)
	assert.Equal(t, DefaultMaxPrice, cfg.EC2.MaxPrice)
	assert.Equal(t, DefaultSSHUser, cfg.SSH.User)
	assert.Equal(t, DefaultSSHPort, cfg.SSH.Port)
	assert.Equal(t, 1, cfg.SSH.ConnectAttempts)
	assert.Equal(t, DefaultCloneDir, cfg.Source.CloneDir)
	assert.Equal(t, DefaultDockerfile, cfg.Build.Dockerfile)
	assert.Equal(t, DefaultContext, cfg.Build.Context)
	assert.Equal(t, DefaultFulfillmentTimeout, cfg.Timeouts.Fulfillment)
	assert.Equal(t, DefaultRunningTimeout, cfg.Timeouts.Running)
	assert.Equal(t, DefaultBootGrace, cfg.Timeouts.BootGrace)
	assert.Equal(t, DefaultTerminateTimeout, cfg.Timeouts.Terminate)
	assert.Zero(t, cfg.Timeouts.Command)
	assert.False(t, cfg.Artifacts.Enabled())
}

func TestLoadFromBytes_ExplicitValues(t *testing.T) {
	data := validEC2YAML + `
timeouts:
  fulfillment: 2m
  boot_grace: 45s
build:
  dockerfile: deploy/Dockerfile
  args:
    VERSION: "1.2"
artifacts:
  bucket: build-logs
  prefix: spotbuild
`
	cfg, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Timeouts.Fulfillment)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.BootGrace)
	assert.Equal(t, "deploy/Dockerfile", cfg.Build.Dockerfile)
	assert.Equal(t, map[string]string{"VERSION": "1.2"}, cfg.Build.Args)
	assert.True(t, cfg.Artifacts.Enabled())
}

func TestLoadFromBytes_UnknownField(t *testing.T) {
	_, err := LoadFromBytes([]byte(validEC2YAML + "\nregsitry_typo: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestLoadFromBytes_EnvOverrides(t *testing.T) {
	t.Setenv("REGISTRY_PASSWORD", "s3cret")
	t.Setenv("SPOTBUILD_MAX_PRICE", "0.05")
	t.Setenv("SPOTBUILD_TIMEOUT_BOOT_GRACE", "5s")
	t.Setenv("SPOTBUILD_TIMEOUT_RUNNING", "not-a-duration")
	t.Setenv("SPOTBUILD_SSH_CONNECT_ATTEMPTS", "3")

	cfg, err := LoadFromBytes([]byte(validEC2YAML))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Registry.Password)
	assert.Equal(t, "0.05", cfg.EC2.MaxPrice)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.BootGrace)
	assert.Equal(t, DefaultRunningTimeout, cfg.Timeouts.Running)
	assert.Equal(t, 3, cfg.SSH.ConnectAttempts)
}

func TestLoadFromBytes_HCloudTokenFromEnv(t *testing.T) {
	t.Setenv("HCLOUD_TOKEN", "token-from-env")

	data := `
provider: hcloud
hcloud:
  server_type: cx22
  location: nbg1
ssh:
  private_key_path: /keys/id_ed25519
source:
  repo_url: https://github.com/acme/api.git
registry:
  image: ghcr.io/acme/api
`
	cfg, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "token-from-env", cfg.HCloud.Token)
	assert.Equal(t, DefaultHCloudImage, cfg.HCloud.Image)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(validEC2YAML), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme/api", cfg.Registry.Image)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("provider: gce\n"), 0o600))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
	assert.Contains(t, err.Error(), `invalid provider "gce"`)
}
