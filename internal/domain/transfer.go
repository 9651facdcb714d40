// Package domain defines core types, interfaces, and errors for the
// transfer-run connector framework.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// RunState is the lifecycle state of a transfer run as known to the
// tracking service.
type RunState string

// Run state constants. A run is RUNNING from scope entry until scope exit,
// then exactly one of SUCCEEDED or FAILED.
const (
	RunStateRunning   RunState = "RUNNING"
	RunStateSucceeded RunState = "SUCCEEDED"
	RunStateFailed    RunState = "FAILED"
)

// MessageSeverity classifies a buffered run log entry.
type MessageSeverity string

// Severities accepted by the tracking service's log-batch endpoint.
// Log events at any other level are never buffered.
const (
	SeverityInfo    MessageSeverity = "INFO"
	SeverityWarning MessageSeverity = "WARNING"
	SeverityError   MessageSeverity = "ERROR"
)

// LogEntry is one run log message queued for the next heartbeat flush.
// Text is fully formatted at creation time.
type LogEntry struct {
	Time     time.Time
	Severity MessageSeverity
	Text     string
}

// RunDescriptor identifies one transfer run. It is produced externally
// (decoded from a trigger message or a run file) and treated as read-only
// apart from parameter normalization.
type RunDescriptor struct {
	// Name is the full resource path:
	// projects/{p}/locations/{l}/transferConfigs/{c}/runs/{r}.
	Name string

	// Decomposed from Name.
	ProjectID  string
	LocationID string
	ConfigID   string
	RunID      string

	DataSourceID         string
	RunTime              time.Time
	UserID               string
	Params               map[string]any
	DestinationDatasetID string
}

// ParseRunName decomposes a transfer run resource name into its components.
func ParseRunName(name string) (projectID, locationID, configID, runID string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 8 || parts[0] != "projects" || parts[2] != "locations" ||
		parts[4] != "transferConfigs" || parts[6] != "runs" {
		return "", "", "", "", fmt.Errorf("malformed transfer run name %q", name)
	}
	return parts[1], parts[3], parts[5], parts[7], nil
}

// LifecycleOutcome is the result of running one coordinator scope.
// Err is the escaping error, nil when the scope completed cleanly or
// suppressed the failure.
type LifecycleOutcome struct {
	FinalState RunState
	Err        error
}

// TableArtifact associates one destination table with the files staged for
// it. SourceLocations are local paths after staging and remote URIs after
// upload. The load step requires at least one source location.
type TableArtifact struct {
	SchemaKey       string
	DestinationName string
	SourceLocations []string
	Definition      TableDefinition
}
