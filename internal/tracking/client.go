// Package tracking implements the REST client for the transfer tracking
// service: run state patches, heartbeat log batches, run closure, and load
// triggering.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"dts-connector/internal/domain"
)

const (
	defaultBaseURL = "https://bigquerydatatransfer.googleapis.com/v1/"
	defaultScope   = "https://www.googleapis.com/auth/bigquery"

	// defaultRateLimit caps partner API calls per second; heartbeats from
	// many concurrent runs share one quota.
	defaultRateLimit = 10
)

// Compile-time check: Client implements the tracking port.
var _ domain.TrackingClient = (*Client)(nil)

// Client talks to the tracking service over REST. Failed calls return
// *googleapi.Error so callers can classify on the HTTP status.
type Client struct {
	baseURL *url.URL
	hc      *http.Client
	limiter *rate.Limiter
}

// NewClient builds an authenticated client. baseURL and rps of zero value
// select the defaults; credentials come from the supplied options, falling
// back to application defaults.
func NewClient(ctx context.Context, baseURL string, rps float64, opts ...option.ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if rps <= 0 {
		rps = defaultRateLimit
	}

	opts = append([]option.ClientOption{option.WithScopes(defaultScope)}, opts...)
	hc, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create HTTP client: %w", err)
	}

	return &Client{
		baseURL: base,
		hc:      hc,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}, nil
}

// NewClientWithHTTP builds a client over an existing *http.Client. Used by
// tests and local setups that bring their own transport.
func NewClientWithHTTP(baseURL string, hc *http.Client) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	return &Client{
		baseURL: base,
		hc:      hc,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}, nil
}

// PatchState reports a run state transition.
func (c *Client) PatchState(ctx context.Context, runName string, state domain.RunState) error {
	body := map[string]any{"state": string(state)}
	return c.do(ctx, http.MethodPatch, runName+"?updateMask=state", body)
}

// SubmitLogBatch delivers buffered run log entries as transfer messages.
func (c *Client) SubmitLogBatch(ctx context.Context, runName string, entries []domain.LogEntry) error {
	msgs := make([]transferMessage, len(entries))
	for i, e := range entries {
		msgs[i] = transferMessage{
			MessageTime: e.Time.UTC().Format(time.RFC3339Nano),
			Severity:    string(e.Severity),
			MessageText: e.Text,
		}
	}
	body := map[string]any{"transferMessages": msgs}
	return c.do(ctx, http.MethodPost, runName+":logMessages", body)
}

// FinishRun closes the run after its terminal state was reported.
func (c *Client) FinishRun(ctx context.Context, runName string) error {
	return c.do(ctx, http.MethodPost, runName+":finishRun", nil)
}

// StartLoad triggers the managed load path for the run's staged tables.
func (c *Client) StartLoad(ctx context.Context, runName string, artifacts []domain.TableArtifact) error {
	body := map[string]any{"importedData": importedData(artifacts)}
	return c.do(ctx, http.MethodPost, runName+":startBigQueryJobs", body)
}

// StartLoadDirect triggers load jobs against a dataset, bypassing the
// managed path. Used in local testing mode against a scratch dataset.
func (c *Client) StartLoadDirect(ctx context.Context, datasetID string, artifacts []domain.TableArtifact) error {
	body := map[string]any{
		"destinationDatasetId": datasetID,
		"importedData":         importedData(artifacts),
	}
	return c.do(ctx, http.MethodPost, "datasets/"+datasetID+":startLoad", body)
}

func (c *Client) do(ctx context.Context, method, ref string, body any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := c.baseURL.Parse(ref)
	if err != nil {
		return fmt.Errorf("build URL %q: %w", ref, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, ref, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
