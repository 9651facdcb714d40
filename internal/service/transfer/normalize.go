package transfer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"dts-connector/internal/domain"
)

// runResource mirrors the tracking service's encoding of a transfer run, as
// carried by trigger messages (JSON) and run files (YAML).
type runResource struct {
	Name                 string         `json:"name" yaml:"name"`
	DataSourceID         string         `json:"dataSourceId" yaml:"dataSourceId"`
	RunTime              string         `json:"runTime" yaml:"runTime"`
	UserID               string         `json:"userId" yaml:"userId"`
	Params               map[string]any `json:"params" yaml:"params"`
	DestinationDatasetID string         `json:"destinationDatasetId" yaml:"destinationDatasetId"`
}

// DecodeRunJSON decodes a queue trigger message into a run descriptor.
func DecodeRunJSON(data []byte) (*domain.RunDescriptor, error) {
	var r runResource
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode run resource: %w", err)
	}
	return buildDescriptor(r)
}

// DecodeRunYAML decodes a run file into a run descriptor.
func DecodeRunYAML(data []byte) (*domain.RunDescriptor, error) {
	var r runResource
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode run resource: %w", err)
	}
	return buildDescriptor(r)
}

func buildDescriptor(r runResource) (*domain.RunDescriptor, error) {
	projectID, locationID, configID, runID, err := domain.ParseRunName(r.Name)
	if err != nil {
		return nil, err
	}
	run := &domain.RunDescriptor{
		Name:                 r.Name,
		ProjectID:            projectID,
		LocationID:           locationID,
		ConfigID:             configID,
		RunID:                runID,
		DataSourceID:         r.DataSourceID,
		UserID:               r.UserID,
		Params:               r.Params,
		DestinationDatasetID: r.DestinationDatasetID,
	}
	if run.Params == nil {
		run.Params = map[string]any{}
	}
	if r.RunTime != "" {
		t, err := time.Parse(time.RFC3339, r.RunTime)
		if err != nil {
			return nil, fmt.Errorf("parse run time %q: %w", r.RunTime, err)
		}
		run.RunTime = t.UTC()
	}
	return run, nil
}

// NormalizeParams coerces declared integer parameters to int64. The wire
// encoding delivers every parameter as a string or a JSON number; connectors
// declare which ones must be integers.
func NormalizeParams(params map[string]any, integerParams []string) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	for _, name := range integerParams {
		v, ok := out[name]
		if !ok {
			continue
		}
		n, err := coerceInt(v)
		if err != nil {
			return nil, domain.ErrValidation("parameter %q: %v", name, err)
		}
		out[name] = n
	}
	return out, nil
}

func coerceInt(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// ValidateRequiredParams checks that every declared required parameter is
// present, returning a suppressible validation error otherwise.
func ValidateRequiredParams(params map[string]any, required []string) error {
	var missing []string
	for _, name := range required {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.ErrValidation("missing required parameters %v", missing)
	}
	return nil
}
