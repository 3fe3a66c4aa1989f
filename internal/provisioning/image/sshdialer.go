package image

import (
	"context"
	"time"

	gossh "golang.org/x/crypto/ssh"

	"github.com/imamik/spotbuild/internal/platform/ssh"
)

// SSHDialerConfig holds the connection settings shared by every host.
type SSHDialerConfig struct {
	User            string
	Port            int
	PrivateKey      []byte
	DialTimeout     time.Duration
	ConnectAttempts int
	RetryDelay      time.Duration
	// HostKeyCallback verifies host keys. Nil accepts any key.
	HostKeyCallback gossh.HostKeyCallback
}

// SSHDialer dials build instances over SSH.
type SSHDialer struct {
	cfg SSHDialerConfig
}

// NewSSHDialer creates an SSHDialer.
func NewSSHDialer(cfg SSHDialerConfig) *SSHDialer {
	return &SSHDialer{cfg: cfg}
}

// Dial connects and authenticates to host.
func (d *SSHDialer) Dial(ctx context.Context, host string) (Session, error) {
	client, err := ssh.NewClient(&ssh.Config{
		Host:            host,
		Port:            d.cfg.Port,
		User:            d.cfg.User,
		PrivateKey:      d.cfg.PrivateKey,
		DialTimeout:     d.cfg.DialTimeout,
		ConnectAttempts: d.cfg.ConnectAttempts,
		RetryDelay:      d.cfg.RetryDelay,
		HostKeyCallback: d.cfg.HostKeyCallback,
	})
	if err != nil {
		return nil, err
	}

	conn, err := client.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &sshSession{conn: conn}, nil
}

type sshSession struct {
	conn *ssh.Conn
}

func (s *sshSession) Run(ctx context.Context, script *Script) (*Result, error) {
	out, err := s.conn.Run(ctx, script.Render(), script.Stdin())
	if err != nil {
		return nil, err
	}
	return &Result{Stdout: out.Stdout, Stderr: out.Stderr, ExitStatus: out.ExitStatus}, nil
}

func (s *sshSession) Close() error {
	return s.conn.Close()
}
