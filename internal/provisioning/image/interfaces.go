package image

import (
	"context"
	"errors"
)

// Sentinel errors returned by Builder.Run, wrapped with the cause.
var (
	// ErrProvisioning covers rejected requests, fulfillment and running
	// timeouts, and instances without a public address.
	ErrProvisioning = errors.New("provisioning failed")
	// ErrConnect covers SSH dial, handshake and transport failures.
	ErrConnect = errors.New("remote connection failed")
	// ErrRemoteCommand is returned when the command sequence exits non-zero.
	ErrRemoteCommand = errors.New("remote command failed")
)

// Provisioner acquires and releases a single compute instance.
type Provisioner interface {
	// RequestInstance submits a request for one instance and returns the
	// request ID. tags are attached to everything the request creates.
	RequestInstance(ctx context.Context, tags map[string]string) (string, error)
	// AwaitFulfillment blocks until the request yields an instance and
	// returns the instance ID.
	AwaitFulfillment(ctx context.Context, requestID string, tags map[string]string) (string, error)
	// CancelRequest withdraws a request whose fulfillment was not observed.
	// Any instance the request launched in the meantime is terminated.
	CancelRequest(ctx context.Context, requestID string) error
	AwaitRunning(ctx context.Context, instanceID string) error
	PublicAddress(ctx context.Context, instanceID string) (string, error)
	// Terminate requests termination and returns without waiting for it.
	Terminate(ctx context.Context, instanceID string) error
	// ListManaged returns live instances created by spotbuild.
	ListManaged(ctx context.Context) ([]string, error)
}

// Dialer opens remote shell sessions.
type Dialer interface {
	Dial(ctx context.Context, host string) (Session, error)
}

// Session runs scripts on a connected host.
type Session interface {
	// Run executes the script as one shell command. A non-zero exit
	// status is reported in Result, not as an error.
	Run(ctx context.Context, script *Script) (*Result, error)
	Close() error
}

// Result is the captured outcome of a script.
type Result struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Archiver stores the transcript of a run.
type Archiver interface {
	Archive(ctx context.Context, runID string, transcript []byte) error
}
