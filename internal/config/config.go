package config

import "time"

// Supported compute providers.
const (
	ProviderEC2    = "ec2"
	ProviderHCloud = "hcloud"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "spotbuild.yaml"

// Config holds the application configuration.
type Config struct {
	// Provider selects the compute backend: "ec2" (default) or "hcloud".
	Provider string `yaml:"provider"`

	EC2       EC2Config       `yaml:"ec2"`
	HCloud    HCloudConfig    `yaml:"hcloud"`
	SSH       SSHConfig       `yaml:"ssh"`
	Source    SourceConfig    `yaml:"source"`
	Registry  RegistryConfig  `yaml:"registry"`
	Build     BuildConfig     `yaml:"build"`
	Timeouts  Timeouts        `yaml:"timeouts"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
}

// EC2Config describes the spot instance request.
type EC2Config struct {
	Region           string   `yaml:"region"`
	ImageID          string   `yaml:"image_id"`
	InstanceType     string   `yaml:"instance_type"`
	KeyName          string   `yaml:"key_name"`
	SecurityGroupIDs []string `yaml:"security_group_ids"`
	SubnetID         string   `yaml:"subnet_id"`
	// MaxPrice is the maximum hourly bid in USD, e.g. "0.01".
	MaxPrice string `yaml:"max_price"`
	// Endpoint overrides the EC2 API endpoint.
	Endpoint string `yaml:"endpoint"`
}

// HCloudConfig describes the Hetzner Cloud server.
type HCloudConfig struct {
	Token      string   `yaml:"token"`
	ServerType string   `yaml:"server_type"`
	Image      string   `yaml:"image"`
	Location   string   `yaml:"location"`
	SSHKeys    []string `yaml:"ssh_keys"`
}

// SSHConfig holds the remote shell settings.
type SSHConfig struct {
	User           string `yaml:"user"`
	Port           int    `yaml:"port"`
	PrivateKeyPath string `yaml:"private_key_path"`
	// KnownHosts enables host key verification against this file.
	// Any host key is accepted when empty.
	KnownHosts string `yaml:"known_hosts"`
	// ConnectAttempts is the number of dial attempts. Defaults to 1.
	ConnectAttempts int `yaml:"connect_attempts"`
}

// SourceConfig locates the repository to build.
type SourceConfig struct {
	RepoURL string `yaml:"repo_url"`
	// Ref is a branch, tag or commit. Empty means the default branch.
	Ref string `yaml:"ref"`
	// PinCommit resolves Ref to a commit before provisioning, builds that
	// exact commit and adds it as an extra image tag.
	PinCommit bool `yaml:"pin_commit"`
	// CloneDir is the checkout directory on the instance.
	CloneDir string `yaml:"clone_dir"`
}

// RegistryConfig holds the image name and registry credentials.
type RegistryConfig struct {
	// Image is the repository name without a tag, e.g. "acme/api" or
	// "ghcr.io/acme/api".
	Image    string `yaml:"image"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// ExtraTags are pushed in addition to "latest".
	ExtraTags []string `yaml:"extra_tags"`
}

// BuildConfig holds docker build options.
type BuildConfig struct {
	Dockerfile string            `yaml:"dockerfile"`
	Context    string            `yaml:"context"`
	Args       map[string]string `yaml:"args"`
}

// ArtifactsConfig enables uploading the build transcript to S3.
type ArtifactsConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Enabled reports whether transcripts are archived.
func (a ArtifactsConfig) Enabled() bool {
	return a.Bucket != ""
}

// Timeouts bounds every blocking wait of a run.
type Timeouts struct {
	Fulfillment time.Duration `yaml:"fulfillment"` // spot request fulfillment
	Running     time.Duration `yaml:"running"`     // instance reaching running state
	BootGrace   time.Duration `yaml:"boot_grace"`  // fixed delay before SSH connect
	Dial        time.Duration `yaml:"dial"`        // SSH dial and handshake
	Command     time.Duration `yaml:"command"`     // remote build; zero means unbounded
	Terminate   time.Duration `yaml:"terminate"`   // termination request
}
