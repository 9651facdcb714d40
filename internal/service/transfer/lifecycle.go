// Package transfer implements the transfer-run lifecycle: the coordinator
// scope that owns the heartbeat and timeout timers, the buffered run logger,
// and the trigger loop that feeds runs into it.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dts-connector/internal/domain"
)

// Defaults mirror the tracking service's update deadline expectations.
const (
	DefaultUpdateInterval = 60 * time.Second
	DefaultRunTimeout     = time.Hour
)

// RunScope is handed to the run body executing inside a coordinator scope.
// Everything the body logs through Logger is buffered for the next heartbeat.
type RunScope struct {
	run    *domain.RunDescriptor
	logger *slog.Logger
}

// Run returns the descriptor for this scope.
func (s *RunScope) Run() *domain.RunDescriptor { return s.run }

// Logger returns the buffered run logger.
func (s *RunScope) Logger() *slog.Logger { return s.logger }

// RunBody is the caller-supplied work of a run. It must return promptly
// once ctx is cancelled; the timeout timer cancels ctx when the run's
// wall-clock deadline passes.
type RunBody func(ctx context.Context, scope *RunScope) error

// Coordinator drives a single transfer run from RUNNING to exactly one
// terminal state, reporting heartbeats and buffered log messages to the
// tracking service along the way. One coordinator serves one descriptor;
// scopes never share timers or buffers.
type Coordinator struct {
	run      *domain.RunDescriptor
	tracking domain.TrackingClient // nil in local testing mode
	logger   *slog.Logger

	buf       *MessageBuffer
	runLogger *slog.Logger
	heartbeat *Timer
	timeout   *Timer

	cancel context.CancelCauseFunc

	// flushMu serializes heartbeat submits against the exit path. Stopping
	// a Timer does not interrupt a firing already in progress, so exit
	// takes flushMu to wait out an in-flight submit and sets exited to
	// no-op any tick that arrives afterwards.
	flushMu sync.Mutex
	exited  bool
}

// NewCoordinator creates a coordinator for one run. tracking may be nil;
// non-positive intervals fall back to the defaults.
func NewCoordinator(run *domain.RunDescriptor, tracking domain.TrackingClient,
	logger *slog.Logger, updateInterval, runTimeout time.Duration) *Coordinator {

	if updateInterval <= 0 {
		updateInterval = DefaultUpdateInterval
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	c := &Coordinator{
		run:      run,
		tracking: tracking,
		logger:   logger.With("run", run.Name),
		buf:      NewMessageBuffer(),
		cancel:   func(error) {},
	}
	c.runLogger = NewRunLogger(c.logger, c.buf)
	c.heartbeat = NewTimer(updateInterval, c.heartbeatTick, c.heartbeatError)
	c.timeout = NewTimer(runTimeout, c.timeoutTick, nil)
	return c
}

// Run executes body inside the coordinator scope and returns the outcome.
// The scope transitions state exactly once, and both timers are stopped
// before the terminal state is reported, however the scope exits.
func (c *Coordinator) Run(ctx context.Context, body RunBody) domain.LifecycleOutcome {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	c.cancel = cancel

	c.logger.Info("transfer run starting")
	c.heartbeat.Start()
	c.timeout.Start()

	if c.tracking != nil {
		c.logger.Info("reporting run state", "state", domain.RunStateRunning)
		if err := c.tracking.PatchState(runCtx, c.run.Name, domain.RunStateRunning); err != nil {
			// The tracking service never acknowledged the run as
			// started: exit now with this as the triggering error,
			// classified like any other.
			return c.exit(ctx, fmt.Errorf("patch state %s: %w", domain.RunStateRunning, err))
		}
	}

	scope := &RunScope{run: c.run, logger: c.runLogger}
	err := body(runCtx, scope)
	if err != nil && errors.Is(err, context.Canceled) {
		// The body unwound because the timeout cancelled the scope;
		// surface the cancellation cause instead of the bare ctx error.
		if cause := context.Cause(runCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			err = cause
		}
	}

	// Exit RPCs use the parent context: runCtx is already cancelled on the
	// timeout path.
	return c.exit(ctx, err)
}

// exit closes the scope. trigger is the error that ended it, nil on clean
// completion. It returns the outcome whose Err is the escaping error.
func (c *Coordinator) exit(ctx context.Context, trigger error) domain.LifecycleOutcome {
	// Timeout first: once it is stopped no new cancellation can arrive
	// mid-exit; then heartbeat, so no new tick schedules after this point.
	c.timeout.Stop()
	c.heartbeat.Stop()

	// Taking flushMu waits out a tick whose submit is still in flight and
	// marks the scope exited, so no heartbeat submit can interleave with
	// the final flush or land after the terminal report.
	c.flushMu.Lock()
	c.exited = true

	state := domain.RunStateSucceeded
	if trigger != nil {
		state = domain.RunStateFailed
	}

	// A permanently-rejecting tracking API gets no further calls: the
	// error propagates verbatim for the trigger loop to classify.
	if domain.Classify(trigger) == domain.ErrClassUnrecoverableAPI {
		c.flushMu.Unlock()
		c.logger.Error("unrecoverable tracking service error", "error", trigger)
		return domain.LifecycleOutcome{FinalState: domain.RunStateFailed, Err: trigger}
	}

	if trigger != nil {
		c.runLogger.Error(fmt.Sprintf("transfer run failed: %v", trigger))
	}

	// Flush remaining messages immediately, bypassing the schedule. A
	// flush rejected permanently means the rest of the exit RPCs would be
	// rejected too.
	if c.tracking != nil {
		if err := c.flushLocked(); err != nil {
			c.logger.Warn("final log flush failed", "error", err)
			if domain.Classify(err) == domain.ErrClassUnrecoverableAPI {
				c.flushMu.Unlock()
				return domain.LifecycleOutcome{FinalState: domain.RunStateFailed, Err: err}
			}
		}
	}
	c.flushMu.Unlock()

	if c.tracking != nil {
		c.logger.Info("reporting run state", "state", state)
		if err := c.tracking.PatchState(ctx, c.run.Name, state); err != nil {
			return domain.LifecycleOutcome{FinalState: domain.RunStateFailed,
				Err: fmt.Errorf("patch state %s: %w", state, err)}
		}
		if err := c.tracking.FinishRun(ctx, c.run.Name); err != nil {
			return domain.LifecycleOutcome{FinalState: state,
				Err: fmt.Errorf("finish run: %w", err)}
		}
	}

	c.logger.Info("transfer run finished", "state", state)

	var verr *domain.ValidationError
	if errors.As(trigger, &verr) {
		// Parameter validation failures are reported FAILED but not
		// re-raised: retrying them cannot succeed.
		c.logger.Warn("suppressing parameter validation failure", "error", trigger)
		return domain.LifecycleOutcome{FinalState: state, Err: nil}
	}
	return domain.LifecycleOutcome{FinalState: state, Err: trigger}
}

// heartbeatTick flushes the buffer on the heartbeat schedule. A tick that
// lost the race with scope exit is a no-op.
func (c *Coordinator) heartbeatTick() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	if c.exited {
		return nil
	}
	return c.flushLocked()
}

// flushLocked drains the buffer and submits the batch; the caller holds
// flushMu. An empty buffer first gets a synthetic entry so the batch is
// never empty and the tracking service's update deadline keeps being reset
// while the run body is silent.
func (c *Coordinator) flushLocked() error {
	if c.buf.Len() == 0 {
		c.runLogger.Info(fmt.Sprintf("Processing... next update within %s", c.heartbeat.Interval()))
	}
	entries := c.buf.Drain()
	if c.tracking == nil || len(entries) == 0 {
		return nil
	}
	if err := c.tracking.SubmitLogBatch(context.Background(), c.run.Name, entries); err != nil {
		c.buf.Requeue(entries)
		return fmt.Errorf("submit log batch: %w", err)
	}
	return nil
}

// heartbeatError handles a failed heartbeat submission. Recoverable
// failures ride the next tick (the entries were requeued); an unrecoverable
// API failure aborts the run.
func (c *Coordinator) heartbeatError(err error) {
	c.logger.Warn("heartbeat update failed", "error", err)
	if domain.Classify(err) == domain.ErrClassUnrecoverableAPI {
		c.cancel(err)
	}
}

// timeoutTick fires once when the run outlives its deadline. It stops its
// own schedule, records the failure, and cancels the scope so the body
// unwinds into exit.
func (c *Coordinator) timeoutTick() error {
	c.timeout.Stop()
	terr := &domain.TimeoutError{Timeout: c.timeout.Interval()}
	c.runLogger.Error(terr.Error())
	c.cancel(terr)
	return nil
}
