package domain

import (
	"context"
	"log/slog"
)

// TrackingClient is the remote system of record for run state and logs.
// Implemented by tracking.Client. A nil TrackingClient means local testing
// mode: the coordinator skips all reporting.
type TrackingClient interface {
	// PatchState reports a run state transition.
	PatchState(ctx context.Context, runName string, state RunState) error
	// SubmitLogBatch delivers buffered run log entries.
	SubmitLogBatch(ctx context.Context, runName string, entries []LogEntry) error
	// FinishRun closes the run after its terminal state was reported.
	FinishRun(ctx context.Context, runName string) error
	// StartLoad triggers destination load jobs through the tracking service.
	StartLoad(ctx context.Context, runName string, artifacts []TableArtifact) error
	// StartLoadDirect triggers load jobs against a dataset directly,
	// bypassing the run's managed load path.
	StartLoadDirect(ctx context.Context, datasetID string, artifacts []TableArtifact) error
}

// TriggerMessage is one inbound run trigger. Exactly one of Ack or Nack may
// be called; calling neither leaves the message to the queue's lease expiry.
type TriggerMessage struct {
	Data []byte
	Ack  func()
	Nack func()
}

// MessageHandler processes one trigger message. The handler owns the
// message's fate.
type MessageHandler func(ctx context.Context, msg TriggerMessage)

// MessageSource delivers trigger messages until ctx is cancelled. The
// source may invoke the handler concurrently up to its configured
// flow-control limit.
type MessageSource interface {
	Receive(ctx context.Context, handler MessageHandler) error
}

// StageFunc stages the tables for one run and returns their artifacts with
// local source locations filled in.
type StageFunc func(ctx context.Context, run *RunDescriptor, logger *slog.Logger, localPrefix string) ([]TableArtifact, error)

// ObjectStore writes locally staged files to remote staging storage.
// Implemented by staging.GCSStore.
type ObjectStore interface {
	// BucketLocation returns the bucket's storage location, e.g. "US".
	BucketLocation(ctx context.Context, bucket string) (string, error)
	// Upload copies a local file to bucket/object and returns its URI.
	// When overwrite is false an existing object is an error.
	Upload(ctx context.Context, localPath, bucket, object string, overwrite bool) (string, error)
}
