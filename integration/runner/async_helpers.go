package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/internal/handlers"
)

const (
	// PollInterval is how often to check the investigation for updates
	PollInterval = 500 * time.Millisecond
	// ProcessTimeout is max time to wait for a worker to apply an activity
	ProcessTimeout = 30 * time.Second
)

// call sends a JSON request and returns the status code and raw body
func call(ctx context.Context, client *http.Client, method, url string, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// callJSON sends a request and decodes a response with the wanted status into out
func callJSON(ctx context.Context, client *http.Client, method, url string, in any, want int, out any) error {
	status, data, err := call(ctx, client, method, url, in)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%s %s returned %d (expected %d): %s", method, url, status, want, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateInvestigation opens a new investigation for a case file
func CreateInvestigation(ctx context.Context, client *http.Client, baseURL, caseFile string) (*handlers.InvestigationView, error) {
	var view handlers.InvestigationView
	req := handlers.CreateInvestigationRequest{CaseFile: caseFile}
	if err := callJSON(ctx, client, http.MethodPost, baseURL+"/v1/investigations", req, http.StatusCreated, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetInvestigation retrieves the current investigation view
func GetInvestigation(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*handlers.InvestigationView, error) {
	var view handlers.InvestigationView
	url := fmt.Sprintf("%s/v1/investigations/%s", baseURL, id)
	if err := callJSON(ctx, client, http.MethodGet, url, nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteInvestigation removes an investigation once a suite is done with it
func DeleteInvestigation(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	url := fmt.Sprintf("%s/v1/investigations/%s", baseURL, id)
	return callJSON(ctx, client, http.MethodDelete, url, nil, http.StatusNoContent, nil)
}

// PostActivity queues narrative input and returns the request_id
func PostActivity(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, activity *handlers.ActivityRequest) (string, error) {
	var resp handlers.ActivityResponse
	url := fmt.Sprintf("%s/v1/investigations/%s/activity", baseURL, id)
	if err := callJSON(ctx, client, http.MethodPost, url, activity, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

// PollForProcessing polls the investigation until a worker has saved it
// after the given time. Returns the updated view.
func PollForProcessing(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, since time.Time) (*handlers.InvestigationView, error) {
	timeout := time.After(ProcessTimeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("timeout waiting for worker to process activity (waited %v)", ProcessTimeout)
		case <-ticker.C:
			view, err := GetInvestigation(ctx, client, baseURL, id)
			if err != nil {
				continue
			}
			if view.UpdatedAt.After(since) {
				return view, nil
			}
		}
	}
}
