// Package testutil provides shared mock implementations of domain
// interfaces for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"dts-connector/internal/domain"
)

// === Tracking client mock ===

// MockTrackingClient implements domain.TrackingClient for testing. Calls
// are recorded in order; per-method Fn hooks inject failures.
type MockTrackingClient struct {
	mu sync.Mutex

	PatchStateFn      func(ctx context.Context, runName string, state domain.RunState) error
	SubmitLogBatchFn  func(ctx context.Context, runName string, entries []domain.LogEntry) error
	FinishRunFn       func(ctx context.Context, runName string) error
	StartLoadFn       func(ctx context.Context, runName string, artifacts []domain.TableArtifact) error
	StartLoadDirectFn func(ctx context.Context, datasetID string, artifacts []domain.TableArtifact) error

	States      []domain.RunState      // recorded PatchState calls
	Batches     [][]domain.LogEntry    // recorded SubmitLogBatch calls
	Finishes    int                    // recorded FinishRun calls
	Loads       [][]domain.TableArtifact
	DirectLoads map[string][]domain.TableArtifact
	Calls       []string // ordered method names across all calls
}

func (m *MockTrackingClient) record(call string) {
	m.Calls = append(m.Calls, call)
}

// PatchState implements the interface method for testing.
func (m *MockTrackingClient) PatchState(ctx context.Context, runName string, state domain.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PatchState:" + string(state))
	if m.PatchStateFn != nil {
		if err := m.PatchStateFn(ctx, runName, state); err != nil {
			return err
		}
	}
	m.States = append(m.States, state)
	return nil
}

// SubmitLogBatch implements the interface method for testing.
func (m *MockTrackingClient) SubmitLogBatch(ctx context.Context, runName string, entries []domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SubmitLogBatch")
	if m.SubmitLogBatchFn != nil {
		if err := m.SubmitLogBatchFn(ctx, runName, entries); err != nil {
			return err
		}
	}
	m.Batches = append(m.Batches, entries)
	return nil
}

// FinishRun implements the interface method for testing.
func (m *MockTrackingClient) FinishRun(ctx context.Context, runName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("FinishRun")
	if m.FinishRunFn != nil {
		if err := m.FinishRunFn(ctx, runName); err != nil {
			return err
		}
	}
	m.Finishes++
	return nil
}

// StartLoad implements the interface method for testing.
func (m *MockTrackingClient) StartLoad(ctx context.Context, runName string, artifacts []domain.TableArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("StartLoad")
	if m.StartLoadFn != nil {
		if err := m.StartLoadFn(ctx, runName, artifacts); err != nil {
			return err
		}
	}
	m.Loads = append(m.Loads, artifacts)
	return nil
}

// StartLoadDirect implements the interface method for testing.
func (m *MockTrackingClient) StartLoadDirect(ctx context.Context, datasetID string, artifacts []domain.TableArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("StartLoadDirect")
	if m.StartLoadDirectFn != nil {
		if err := m.StartLoadDirectFn(ctx, datasetID, artifacts); err != nil {
			return err
		}
	}
	if m.DirectLoads == nil {
		m.DirectLoads = map[string][]domain.TableArtifact{}
	}
	m.DirectLoads[datasetID] = append(m.DirectLoads[datasetID], artifacts...)
	return nil
}

// LastState returns the last reported run state, or "" if none.
func (m *MockTrackingClient) LastState() domain.RunState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.States) == 0 {
		return ""
	}
	return m.States[len(m.States)-1]
}

// BatchCount returns the number of submitted log batches.
func (m *MockTrackingClient) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Batches)
}

// AllEntries returns every submitted log entry across all batches.
func (m *MockTrackingClient) AllEntries() []domain.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LogEntry
	for _, b := range m.Batches {
		out = append(out, b...)
	}
	return out
}

// CallNames returns a copy of the ordered call log.
func (m *MockTrackingClient) CallNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

// FinishCount returns the number of FinishRun calls.
func (m *MockTrackingClient) FinishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Finishes
}

// === Message source mock ===

// MockMessageSource delivers a fixed set of messages sequentially and then
// returns. Delivery stops early when ctx is cancelled.
type MockMessageSource struct {
	Messages []domain.TriggerMessage
}

// Receive implements the interface method for testing.
func (s *MockMessageSource) Receive(ctx context.Context, handler domain.MessageHandler) error {
	for _, msg := range s.Messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		handler(ctx, msg)
	}
	return nil
}

// === Object store mock ===

// MockObjectStore implements domain.ObjectStore for testing.
type MockObjectStore struct {
	mu sync.Mutex

	BucketLocationFn func(ctx context.Context, bucket string) (string, error)
	UploadFn         func(ctx context.Context, localPath, bucket, object string, overwrite bool) (string, error)

	Uploaded []string // recorded "bucket/object" keys
}

// BucketLocation implements the interface method for testing.
func (m *MockObjectStore) BucketLocation(ctx context.Context, bucket string) (string, error) {
	if m.BucketLocationFn != nil {
		return m.BucketLocationFn(ctx, bucket)
	}
	return "US", nil
}

// Upload implements the interface method for testing.
func (m *MockObjectStore) Upload(ctx context.Context, localPath, bucket, object string, overwrite bool) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, localPath, bucket, object, overwrite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploaded = append(m.Uploaded, bucket+"/"+object)
	return "gs://" + bucket + "/" + object, nil
}

// UploadedKeys returns a copy of the recorded uploads.
func (m *MockObjectStore) UploadedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Uploaded...)
}
