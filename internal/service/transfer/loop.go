package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dts-connector/internal/domain"
)

// Loop feeds run descriptors into coordinator scopes and applies the
// ack/retry policy to queue-sourced triggers. It holds no per-run state:
// every descriptor gets its own coordinator, timers, and buffer.
type Loop struct {
	tracking       domain.TrackingClient // nil in local testing mode
	logger         *slog.Logger
	updateInterval time.Duration
	runTimeout     time.Duration
}

// NewLoop creates a trigger loop. tracking may be nil; non-positive
// intervals fall back to the coordinator defaults.
func NewLoop(tracking domain.TrackingClient, logger *slog.Logger,
	updateInterval, runTimeout time.Duration) *Loop {
	return &Loop{
		tracking:       tracking,
		logger:         logger,
		updateInterval: updateInterval,
		runTimeout:     runTimeout,
	}
}

// RunOnce executes one descriptor through a coordinator scope and returns
// the escaping error, if any.
func (l *Loop) RunOnce(ctx context.Context, run *domain.RunDescriptor, body RunBody) error {
	coord := NewCoordinator(run, l.tracking, l.logger, l.updateInterval, l.runTimeout)
	return coord.Run(ctx, body).Err
}

// RunFromFile loads a single run descriptor from a YAML file and executes
// it once. There is no retry machinery: any escaping error propagates to
// the caller.
func (l *Loop) RunFromFile(ctx context.Context, path string, body RunBody) error {
	l.logger.Info("triggering via run file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read run file: %w", err)
	}
	run, err := DecodeRunYAML(data)
	if err != nil {
		return err
	}
	return l.RunOnce(ctx, run, body)
}

// Consume processes trigger messages from source, each in its own
// coordinator scope, until ctx is cancelled or a message fails in a way the
// policy does not absorb. Message fate by escaping-error class:
//
//	none (incl. suppressed validation)  ack
//	unrecoverable remote-API            log, ack
//	recoverable remote-API              nack for redelivery
//	anything else                       neither; stop consuming and let the
//	                                    lease expiry redeliver
func (l *Loop) Consume(ctx context.Context, source domain.MessageSource, body RunBody) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	err := source.Receive(ctx, func(ctx context.Context, msg domain.TriggerMessage) {
		if msgErr := l.handleMessage(ctx, msg, body); msgErr != nil {
			cancel(msgErr)
		}
	})
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return err
}

// handleMessage runs one trigger message through a scope and settles it.
// A non-nil return means the message was deliberately left unsettled.
func (l *Loop) handleMessage(ctx context.Context, msg domain.TriggerMessage, body RunBody) error {
	run, err := DecodeRunJSON(msg.Data)
	if err != nil {
		// An undecodable trigger is the crash path: no ack, no nack.
		l.logger.Error("undecodable trigger message", "error", err)
		return err
	}

	runErr := l.RunOnce(ctx, run, body)
	switch domain.Classify(runErr) {
	case domain.ErrClassNone, domain.ErrClassValidation:
		msg.Ack()
	case domain.ErrClassUnrecoverableAPI:
		l.logger.Error("unrecoverable tracking service error, consuming message",
			"run", run.Name, "error", runErr)
		msg.Ack()
	case domain.ErrClassRecoverableAPI:
		l.logger.Warn("recoverable tracking service error, returning message for redelivery",
			"run", run.Name, "error", runErr)
		msg.Nack()
	default:
		// Timeout or unclassified: leave the message to the queue's
		// lease expiry and surface the failure.
		l.logger.Error("transfer run failed, leaving message unsettled",
			"run", run.Name, "error", runErr)
		return runErr
	}
	return nil
}
