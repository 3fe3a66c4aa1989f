package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/imamik/spotbuild/internal/config"
	"github.com/imamik/spotbuild/internal/provisioning/image"
)

const testConfigYAML = `
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
  ref: main
registry:
  image: acme/api
  username: acme
  password: s3cret
timeouts:
  boot_grace: 1ms
`

// pinnedConfigYAML enables commit pinning on top of testConfigYAML.
var pinnedConfigYAML = strings.Replace(testConfigYAML, "  ref: main\n", "  ref: main\n  pin_commit: true\n", 1)

// writeConfig writes yaml to a temporary spotbuild.yaml and returns its path.
func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spotbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

// mockProvisioner implements image.Provisioner for testing.
type mockProvisioner struct {
	mu         sync.Mutex
	requestErr error
	managed    []string
	listErr    error
	failIDs    map[string]bool
	requests   int
	terminated []string
}

func (m *mockProvisioner) RequestInstance(context.Context, map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	return "sir-1", m.requestErr
}

func (m *mockProvisioner) AwaitFulfillment(context.Context, string, map[string]string) (string, error) {
	return "i-1", nil
}

func (m *mockProvisioner) CancelRequest(context.Context, string) error { return nil }

func (m *mockProvisioner) AwaitRunning(context.Context, string) error { return nil }

func (m *mockProvisioner) PublicAddress(context.Context, string) (string, error) {
	return "10.0.0.5", nil
}

func (m *mockProvisioner) Terminate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated = append(m.terminated, id)
	if m.failIDs[id] {
		return errors.New("throttled")
	}
	return nil
}

func (m *mockProvisioner) ListManaged(context.Context) ([]string, error) {
	return m.managed, m.listErr
}

// mockDialer returns sessions that report a fixed exit status.
type mockDialer struct {
	exitStatus int
	scripts    []string
}

func (d *mockDialer) Dial(context.Context, string) (image.Session, error) {
	return &mockSession{d: d}, nil
}

type mockSession struct{ d *mockDialer }

func (s *mockSession) Run(_ context.Context, script *image.Script) (*image.Result, error) {
	s.d.scripts = append(s.d.scripts, script.Render())
	return &image.Result{Stdout: "done", Stderr: "step failed", ExitStatus: s.d.exitStatus}, nil
}

func (s *mockSession) Close() error { return nil }

type mockArchiver struct {
	archived []string
}

func (a *mockArchiver) Archive(_ context.Context, runID string, _ []byte) error {
	a.archived = append(a.archived, runID)
	return nil
}

// saveAndRestoreFactories saves and restores handler factory functions.
func saveAndRestoreFactories(t *testing.T) {
	origLoadConfig := loadConfig
	origNewProvisioner := newProvisioner
	origNewDialer := newDialer
	origNewArchiver := newArchiver
	origResolveCommit := resolveCommit

	t.Cleanup(func() {
		loadConfig = origLoadConfig
		newProvisioner = origNewProvisioner
		newDialer = origNewDialer
		newArchiver = origNewArchiver
		resolveCommit = origResolveCommit
	})
}

// useMocks installs p and d as the provider and dialer.
func useMocks(t *testing.T, p *mockProvisioner, d *mockDialer) {
	t.Helper()
	saveAndRestoreFactories(t)
	newProvisioner = func(context.Context, *config.Config, logr.Logger) (image.Provisioner, error) {
		return p, nil
	}
	newDialer = func(*config.Config, logr.Logger) (image.Dialer, error) {
		return d, nil
	}
}
