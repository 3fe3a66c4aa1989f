package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/spotbuild/internal/config"
	"github.com/imamik/spotbuild/internal/platform/ec2"
	"github.com/imamik/spotbuild/internal/platform/gitref"
	"github.com/imamik/spotbuild/internal/platform/hcloud"
	"github.com/imamik/spotbuild/internal/platform/s3"
	"github.com/imamik/spotbuild/internal/platform/ssh"
	"github.com/imamik/spotbuild/internal/provisioning/image"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfig reads and validates the configuration file.
	loadConfig = config.Load

	// newProvisioner creates the compute provider selected by cfg.
	newProvisioner = defaultProvisioner

	// newDialer creates the SSH dialer for build instances.
	newDialer = defaultDialer

	// newArchiver creates the transcript archiver.
	newArchiver = defaultArchiver

	// resolveCommit resolves a git ref to a commit hash.
	resolveCommit = gitref.Resolve
)

func defaultProvisioner(ctx context.Context, cfg *config.Config, log logr.Logger) (image.Provisioner, error) {
	switch cfg.Provider {
	case config.ProviderHCloud:
		return hcloud.NewProvisioner(cfg.HCloud.Token, hcloud.LaunchOptions{
			ServerType:     cfg.HCloud.ServerType,
			Image:          cfg.HCloud.Image,
			Location:       cfg.HCloud.Location,
			SSHKeys:        cfg.HCloud.SSHKeys,
			RunningTimeout: cfg.Timeouts.Running,
		}, hcloud.WithLogger(log.WithName("hcloud"))), nil
	case config.ProviderEC2:
		client, err := ec2.NewClient(ctx, ec2.ClientConfig{
			Region:   cfg.EC2.Region,
			Endpoint: cfg.EC2.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return ec2.NewProvisioner(client, ec2.LaunchOptions{
			ImageID:            cfg.EC2.ImageID,
			InstanceType:       cfg.EC2.InstanceType,
			KeyName:            cfg.EC2.KeyName,
			SecurityGroupIDs:   cfg.EC2.SecurityGroupIDs,
			SubnetID:           cfg.EC2.SubnetID,
			MaxPrice:           cfg.EC2.MaxPrice,
			FulfillmentTimeout: cfg.Timeouts.Fulfillment,
			RunningTimeout:     cfg.Timeouts.Running,
		}, ec2.WithLogger(log.WithName("ec2"))), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

func defaultDialer(cfg *config.Config, log logr.Logger) (image.Dialer, error) {
	key, err := ssh.LoadPrivateKey(cfg.SSH.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	dc := image.SSHDialerConfig{
		User:            cfg.SSH.User,
		Port:            cfg.SSH.Port,
		PrivateKey:      key,
		DialTimeout:     cfg.Timeouts.Dial,
		ConnectAttempts: cfg.SSH.ConnectAttempts,
	}
	if cfg.SSH.KnownHosts != "" {
		cb, err := ssh.KnownHostsCallback(cfg.SSH.KnownHosts)
		if err != nil {
			return nil, err
		}
		dc.HostKeyCallback = cb
	} else {
		log.Info("WARNING: ssh.known_hosts is not set, host keys are not verified")
	}
	return image.NewSSHDialer(dc), nil
}

func defaultArchiver(ctx context.Context, cfg *config.Config) (image.Archiver, error) {
	a := cfg.Artifacts
	region := a.Region
	if region == "" {
		region = cfg.EC2.Region
	}
	client, err := s3.NewClient(ctx, s3.ClientConfig{
		Region:       region,
		Endpoint:     a.Endpoint,
		UsePathStyle: a.UsePathStyle,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, a.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("artifacts bucket %s does not exist", a.Bucket)
	}
	return image.NewBucketArchiver(client, a.Bucket, a.Prefix), nil
}

// scriptOptions maps the configuration onto the remote build script.
func scriptOptions(cfg *config.Config, commit string) image.ScriptOptions {
	return image.ScriptOptions{
		User:           cfg.SSH.User,
		RepoURL:        cfg.Source.RepoURL,
		Ref:            cfg.Source.Ref,
		Commit:         commit,
		CloneDir:       cfg.Source.CloneDir,
		Image:          cfg.Registry.Image,
		ExtraTags:      cfg.Registry.ExtraTags,
		RegistryServer: cfg.Registry.Server(),
		Username:       cfg.Registry.Username,
		Password:       cfg.Registry.Password,
		Dockerfile:     cfg.Build.Dockerfile,
		Context:        cfg.Build.Context,
		BuildArgs:      cfg.Build.Args,
	}
}
