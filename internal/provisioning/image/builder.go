package image

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/spotbuild/internal/util/labels"
)

// RunIDTag is attached to every instance with the ID of the run that
// created it.
const RunIDTag = labels.KeyRunID

const (
	defaultBootGrace        = 30 * time.Second
	defaultTerminateTimeout = time.Minute
	stderrTailBytes         = 2048
)

// Report summarizes one run.
type Report struct {
	RunID      string
	RequestID  string
	InstanceID string
	Address    string
	Commit     string
	Images     []string
	Result     *Result
	// Terminated is true once a termination request was accepted.
	Terminated bool
	Duration   time.Duration
}

// Builder runs the provision, build and release sequence.
type Builder struct {
	provisioner Provisioner
	dialer      Dialer
	script      *Script
	archiver    Archiver
	redactor    *redactor

	commit           string
	tags             map[string]string
	bootGrace        time.Duration
	commandTimeout   time.Duration
	terminateTimeout time.Duration

	sleep    func(ctx context.Context, d time.Duration) error
	newRunID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithBootGrace sets the fixed delay between the instance reporting
// running and the first connection attempt.
func WithBootGrace(d time.Duration) Option {
	return func(b *Builder) {
		b.bootGrace = d
	}
}

// WithCommandTimeout bounds the remote build. Zero means no bound.
func WithCommandTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.commandTimeout = d
	}
}

// WithTerminateTimeout bounds the termination request.
func WithTerminateTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.terminateTimeout = d
	}
}

// WithArchiver uploads the redacted transcript after the build.
func WithArchiver(a Archiver) Option {
	return func(b *Builder) {
		b.archiver = a
	}
}

// WithTags adds instance tags on top of the run ID tag.
func WithTags(tags map[string]string) Option {
	return func(b *Builder) {
		for k, v := range tags {
			b.tags[k] = v
		}
	}
}

// WithCommit records the commit the script builds in the report.
func WithCommit(commit string) Option {
	return func(b *Builder) {
		b.commit = commit
	}
}

// NewBuilder creates a Builder.
func NewBuilder(p Provisioner, d Dialer, script *Script, opts ...Option) *Builder {
	b := &Builder{
		provisioner:      p,
		dialer:           d,
		script:           script,
		tags:             make(map[string]string),
		bootGrace:        defaultBootGrace,
		terminateTimeout: defaultTerminateTimeout,
		sleep:            sleepContext,
		newRunID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.redactor = newRedactor(script.Secrets())
	return b
}

// Run provisions an instance, builds and pushes the image on it and
// terminates it. Every call is an independent cycle.
//
// Errors are logged before they are returned. Once an instance ID is
// known, termination is requested on every return path, with a context
// that survives cancellation of ctx.
func (b *Builder) Run(ctx context.Context) (report *Report, err error) {
	runID := b.newRunID()
	log := logr.FromContextOrDiscard(ctx).WithValues("runID", runID)
	start := time.Now()

	report = &Report{
		RunID:  runID,
		Commit: b.commit,
		Images: b.script.Images(),
	}

	defer func() {
		report.Duration = time.Since(start)
		runDuration.Observe(report.Duration.Seconds())
		if err != nil {
			runsTotal.WithLabelValues(resultFailure).Inc()
			log.Error(err, "build failed",
				"instanceID", report.InstanceID,
				"terminated", report.Terminated,
				"duration", report.Duration.Round(time.Second).String())
			return
		}
		runsTotal.WithLabelValues(resultSuccess).Inc()
		log.Info("build finished",
			"images", report.Images,
			"instanceID", report.InstanceID,
			"duration", report.Duration.Round(time.Second).String())
	}()

	// Release guard: runs before the summary above.
	defer func() {
		if report.InstanceID != "" {
			report.Terminated = b.terminate(ctx, log, report.InstanceID)
		}
	}()

	tags := labels.NewLabelBuilder().Merge(b.tags).WithRunID(runID).Build()

	if err := b.acquire(ctx, log, tags, report); err != nil {
		return report, err
	}

	log.Info("waiting for instance to boot", "grace", b.bootGrace.String())
	done := observePhase(phaseBoot)
	err = b.sleep(ctx, b.bootGrace)
	done()
	if err != nil {
		return report, fmt.Errorf("interrupted during boot grace: %w", err)
	}

	return report, b.build(ctx, log, report)
}

// acquire requests an instance and waits until it is running and
// reachable. report.InstanceID is set as soon as it is known.
func (b *Builder) acquire(ctx context.Context, log logr.Logger, tags map[string]string, report *Report) error {
	defer observePhase(phaseProvision)()

	log.Info("requesting instance")
	requestID, err := b.provisioner.RequestInstance(ctx, tags)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvisioning, err)
	}
	report.RequestID = requestID

	instanceID, err := b.provisioner.AwaitFulfillment(ctx, requestID, tags)
	if err != nil {
		b.cancelRequest(ctx, log, requestID)
		return fmt.Errorf("%w: %w", ErrProvisioning, err)
	}
	report.InstanceID = instanceID
	log.Info("request fulfilled", "requestID", requestID, "instanceID", instanceID)

	if err := b.provisioner.AwaitRunning(ctx, instanceID); err != nil {
		return fmt.Errorf("%w: %w", ErrProvisioning, err)
	}

	address, err := b.provisioner.PublicAddress(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvisioning, err)
	}
	report.Address = address
	log.Info("instance running", "instanceID", instanceID, "address", address)
	return nil
}

// build connects to the instance and runs the script.
func (b *Builder) build(ctx context.Context, log logr.Logger, report *Report) error {
	log.Info("connecting to instance", "address", report.Address)
	done := observePhase(phaseConnect)
	session, err := b.dialer.Dial(ctx, report.Address)
	done()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.V(1).Info("failed to close session", "error", cerr.Error())
		}
	}()

	runCtx := ctx
	if b.commandTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, b.commandTimeout)
		defer cancel()
	}

	log.Info("executing remote commands", "commands", len(b.script.Commands()))
	done = observePhase(phaseBuild)
	result, err := session.Run(runCtx, b.script)
	done()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	result = &Result{
		Stdout:     b.redactor.redact(result.Stdout),
		Stderr:     b.redactor.redact(result.Stderr),
		ExitStatus: result.ExitStatus,
	}
	report.Result = result

	log.Info("remote stdout", "output", result.Stdout)
	if result.Stderr != "" {
		log.Info("remote stderr", "output", result.Stderr)
	}

	b.archive(ctx, log, report)

	if result.ExitStatus != 0 {
		return fmt.Errorf("%w: exit status %d: %s", ErrRemoteCommand, result.ExitStatus, tail(result.Stderr, stderrTailBytes))
	}
	return nil
}

func (b *Builder) archive(ctx context.Context, log logr.Logger, report *Report) {
	if b.archiver == nil {
		return
	}
	if err := b.archiver.Archive(ctx, report.RunID, b.transcript(report)); err != nil {
		log.Error(err, "failed to archive transcript")
		return
	}
	log.V(1).Info("transcript archived")
}

func (b *Builder) transcript(report *Report) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "run: %s\n", report.RunID)
	fmt.Fprintf(&buf, "instance: %s (%s)\n", report.InstanceID, report.Address)
	if report.Commit != "" {
		fmt.Fprintf(&buf, "commit: %s\n", report.Commit)
	}
	fmt.Fprintf(&buf, "command: %s\n", b.script.Render())
	fmt.Fprintf(&buf, "exit status: %d\n", report.Result.ExitStatus)
	fmt.Fprintf(&buf, "--- stdout ---\n%s\n", report.Result.Stdout)
	fmt.Fprintf(&buf, "--- stderr ---\n%s\n", report.Result.Stderr)
	return buf.Bytes()
}

// terminate issues the termination request without waiting for it.
func (b *Builder) terminate(ctx context.Context, log logr.Logger, instanceID string) bool {
	defer observePhase(phaseTerminate)()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.terminateTimeout)
	defer cancel()

	log.Info("terminating instance", "instanceID", instanceID)
	if err := b.provisioner.Terminate(ctx, instanceID); err != nil {
		terminationsTotal.WithLabelValues(resultFailure).Inc()
		log.Error(err, "failed to terminate instance; it may still be running", "instanceID", instanceID)
		return false
	}
	terminationsTotal.WithLabelValues(resultSuccess).Inc()
	log.Info("instance termination initiated", "instanceID", instanceID)
	return true
}

func (b *Builder) cancelRequest(ctx context.Context, log logr.Logger, requestID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.terminateTimeout)
	defer cancel()

	if err := b.provisioner.CancelRequest(ctx, requestID); err != nil {
		log.Error(err, "failed to cancel request", "requestID", requestID)
		return
	}
	log.Info("request cancelled", "requestID", requestID)
}

func observePhase(phase string) func() {
	start := time.Now()
	return func() {
		phaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
