package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/imamik/spotbuild/internal/util/retry"
)

const (
	defaultPort            = 22
	defaultDialTimeout     = 10 * time.Second
	defaultConnectAttempts = 1
	defaultRetryDelay      = 5 * time.Second
	defaultMaxDelay        = 10 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// ConnectAttempts is the total number of dial attempts.
	// If zero, a single attempt is made.
	ConnectAttempts int

	// RetryDelay is the initial delay between dial attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, any host key is accepted.
	HostKeyCallback ssh.HostKeyCallback
}

// Output is the captured result of one remote command.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Client connects to a single remote host.
// It parses the private key once during construction.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.ConnectAttempts == 0 {
		configCopy.ConnectAttempts = defaultConnectAttempts
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // ephemeral build instances
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Addr returns the host:port the client dials.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

// Connect dials the remote host and authenticates.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	config := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := c.Addr()
	var client *ssh.Client

	err := retry.WithExponentialBackoff(ctx, func() error {
		conn, err := (&net.Dialer{Timeout: c.config.DialTimeout}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		_ = conn.SetDeadline(time.Now().Add(c.config.DialTimeout))
		sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
		if err != nil {
			_ = conn.Close()
			// A host key mismatch does not go away on the next attempt.
			var keyErr *knownhosts.KeyError
			if errors.As(err, &keyErr) {
				return retry.Fatal(err)
			}
			return err
		}
		_ = conn.SetDeadline(time.Time{})
		client = ssh.NewClient(sshConn, chans, reqs)
		return nil
	},
		retry.WithMaxRetries(c.config.ConnectAttempts-1),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}

	return &Conn{client: client, host: c.config.Host}, nil
}

// Conn is an established SSH connection.
type Conn struct {
	client *ssh.Client
	host   string
}

// Run executes command in a new session. stdin may be nil.
//
// A non-zero exit status is reported through Output.ExitStatus, not as an
// error; errors are reserved for transport and session failures. If ctx is
// cancelled the connection is closed and ctx.Err() is returned.
func (c *Conn) Run(ctx context.Context, command string, stdin io.Reader) (*Output, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = c.client.Close()
		<-done
		return nil, ctx.Err()
	}

	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			out.ExitStatus = exitErr.ExitStatus()
			return out, nil
		}
		return out, fmt.Errorf("command did not complete on %s: %w", c.host, err)
	}
	return out, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.client.Close()
}

// LoadPrivateKey reads a private key file.
func LoadPrivateKey(path string) ([]byte, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", path, err)
	}
	if _, err := ssh.ParsePrivateKey(data); err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", path, err)
	}
	return data, nil
}

// KnownHostsCallback returns a host key callback backed by a known_hosts file.
func KnownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", path, err)
	}
	return cb, nil
}
