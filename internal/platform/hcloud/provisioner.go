package hcloud

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/spotbuild/internal/util/labels"
	"github.com/imamik/spotbuild/internal/util/naming"
)

// ManagedLabel marks every server spotbuild created.
const ManagedLabel = labels.KeyManaged

const (
	defaultNamePrefix     = "spotbuild"
	defaultRunningTimeout = 10 * time.Minute
	defaultPollInterval   = 5 * time.Second
)

// LaunchOptions describes the server every request creates.
type LaunchOptions struct {
	ServerType string
	Image      string
	Location   string
	SSHKeys    []string

	// NamePrefix is prepended to a random suffix to form the server name.
	NamePrefix string
	// RunningTimeout bounds the wait for the create actions.
	RunningTimeout time.Duration
	// PollInterval is the delay between action polls.
	PollInterval time.Duration
}

// Provisioner creates, waits for and deletes build servers.
type Provisioner struct {
	client *hcloud.Client
	launch LaunchOptions
	log    logr.Logger

	mu      sync.Mutex
	pending map[int64][]*hcloud.Action
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) Option {
	return func(p *Provisioner) {
		p.client = hc
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Provisioner) {
		p.log = log
	}
}

// NewProvisioner creates a Provisioner authenticated with token.
func NewProvisioner(token string, launch LaunchOptions, opts ...Option) *Provisioner {
	if launch.NamePrefix == "" {
		launch.NamePrefix = defaultNamePrefix
	}
	if launch.RunningTimeout == 0 {
		launch.RunningTimeout = defaultRunningTimeout
	}
	if launch.PollInterval == 0 {
		launch.PollInterval = defaultPollInterval
	}

	p := &Provisioner{
		launch:  launch,
		log:     logr.Discard(),
		pending: make(map[int64][]*hcloud.Action),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = hcloud.NewClient(
			hcloud.WithToken(token),
			hcloud.WithApplication("spotbuild", ""),
			hcloud.WithPollOpts(hcloud.PollOpts{BackoffFunc: hcloud.ConstantBackoff(launch.PollInterval)}),
		)
	}
	return p
}

// RequestInstance creates the server and returns its ID. Labels are
// applied at creation time.
func (p *Provisioner) RequestInstance(ctx context.Context, tags map[string]string) (string, error) {
	sshKeys, err := p.resolveSSHKeys(ctx)
	if err != nil {
		return "", err
	}

	opts := hcloud.ServerCreateOpts{
		Name:       naming.Instance(p.launch.NamePrefix, tags[labels.KeyRunID]),
		ServerType: &hcloud.ServerType{Name: p.launch.ServerType},
		Image:      &hcloud.Image{Name: p.launch.Image},
		SSHKeys:    sshKeys,
		Labels:     toLabels(tags),
	}
	if p.launch.Location != "" {
		opts.Location = &hcloud.Location{Name: p.launch.Location}
	}

	result, _, err := p.client.Server.Create(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("server request rejected: %w", err)
	}
	if result.Server == nil {
		return "", fmt.Errorf("server request returned no server")
	}

	actions := make([]*hcloud.Action, 0, 1+len(result.NextActions))
	if result.Action != nil {
		actions = append(actions, result.Action)
	}
	actions = append(actions, result.NextActions...)
	p.mu.Lock()
	p.pending[result.Server.ID] = actions
	p.mu.Unlock()

	id := strconv.FormatInt(result.Server.ID, 10)
	p.log.V(1).Info("server requested", "serverID", id, "name", opts.Name, "actions", len(actions))
	return id, nil
}

// AwaitFulfillment returns the server ID unchanged. A created server
// is already a fulfilled request.
func (p *Provisioner) AwaitFulfillment(_ context.Context, requestID string, _ map[string]string) (string, error) {
	return requestID, nil
}

// CancelRequest is a no-op; there is nothing to cancel once a server exists.
func (p *Provisioner) CancelRequest(context.Context, string) error {
	return nil
}

// AwaitRunning waits for the actions returned when the server was
// created, then checks that the server is running. Without recorded
// actions only the status check is made.
func (p *Provisioner) AwaitRunning(ctx context.Context, instanceID string) error {
	id, err := parseID(instanceID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	actions := p.pending[id]
	delete(p.pending, id)
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.launch.RunningTimeout)
	defer cancel()

	if len(actions) > 0 {
		if err := p.client.Action.WaitFor(ctx, actions...); err != nil {
			return fmt.Errorf("server %s not running within %s: %w", instanceID, p.launch.RunningTimeout, err)
		}
	}

	server, _, err := p.client.Server.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get server %s: %w", instanceID, err)
	}
	if server == nil {
		return fmt.Errorf("server %s not found", instanceID)
	}
	if server.Status != hcloud.ServerStatusRunning {
		return fmt.Errorf("server %s is %s", instanceID, server.Status)
	}
	return nil
}

// PublicAddress returns the public IPv4 address of the server.
func (p *Provisioner) PublicAddress(ctx context.Context, instanceID string) (string, error) {
	id, err := parseID(instanceID)
	if err != nil {
		return "", err
	}

	server, _, err := p.client.Server.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get server %s: %w", instanceID, err)
	}
	if server == nil {
		return "", fmt.Errorf("server %s not found", instanceID)
	}
	if server.PublicNet.IPv4.IP == nil || server.PublicNet.IPv4.IP.IsUnspecified() {
		return "", fmt.Errorf("server %s has no public IPv4 address", instanceID)
	}
	return server.PublicNet.IPv4.IP.String(), nil
}

// Terminate deletes the server and does not wait for the delete action.
// A server that no longer exists counts as terminated.
func (p *Provisioner) Terminate(ctx context.Context, instanceID string) error {
	id, err := parseID(instanceID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()

	_, _, err = p.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: id})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete server %s: %w", instanceID, err)
	}
	return nil
}

// ListManaged returns the IDs of servers carrying the managed label.
func (p *Provisioner) ListManaged(ctx context.Context) ([]string, error) {
	servers, err := p.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.ManagedSelector()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list managed servers: %w", err)
	}

	ids := make([]string, 0, len(servers))
	for _, s := range servers {
		ids = append(ids, strconv.FormatInt(s.ID, 10))
	}
	return ids, nil
}

func (p *Provisioner) resolveSSHKeys(ctx context.Context) ([]*hcloud.SSHKey, error) {
	keys := make([]*hcloud.SSHKey, 0, len(p.launch.SSHKeys))
	for _, name := range p.launch.SSHKeys {
		key, _, err := p.client.SSHKey.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get SSH key %s: %w", name, err)
		}
		if key == nil {
			return nil, fmt.Errorf("SSH key not found: %s", name)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func parseID(instanceID string) (int64, error) {
	id, err := strconv.ParseInt(instanceID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid server id %q: %w", instanceID, err)
	}
	return id, nil
}

func toLabels(tags map[string]string) map[string]string {
	return labels.NewLabelBuilder().Merge(tags).Build()
}
