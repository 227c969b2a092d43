package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/internal/handlers"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends a request and decodes a response with the wanted status into out
func do(client *http.Client, method, url string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func listCases(client *http.Client, baseURL string) ([]handlers.CaseSummary, error) {
	var cases []handlers.CaseSummary
	err := do(client, http.MethodGet, baseURL+"/v1/cases", nil, http.StatusOK, &cases)
	return cases, err
}

func createInvestigation(client *http.Client, baseURL, caseFile string) (*handlers.InvestigationView, error) {
	var view handlers.InvestigationView
	req := handlers.CreateInvestigationRequest{CaseFile: caseFile}
	if err := do(client, http.MethodPost, baseURL+"/v1/investigations", req, http.StatusCreated, &view); err != nil {
		return nil, fmt.Errorf("failed to open investigation: %w", err)
	}
	return &view, nil
}

func getInvestigation(client *http.Client, baseURL string, id uuid.UUID) (*handlers.InvestigationView, error) {
	var view handlers.InvestigationView
	if err := do(client, http.MethodGet, fmt.Sprintf("%s/v1/investigations/%s", baseURL, id), nil, http.StatusOK, &view); err != nil {
		return nil, fmt.Errorf("failed to get investigation: %w", err)
	}
	return &view, nil
}

func getDigest(client *http.Client, baseURL string, id uuid.UUID) (*handlers.DigestResponse, error) {
	var digest handlers.DigestResponse
	if err := do(client, http.MethodGet, fmt.Sprintf("%s/v1/investigations/%s/digest", baseURL, id), nil, http.StatusOK, &digest); err != nil {
		return nil, fmt.Errorf("failed to get digest: %w", err)
	}
	return &digest, nil
}

func answerPuzzle(client *http.Client, baseURL string, id uuid.UUID, answer string) (*puzzle.Outcome, error) {
	var outcome puzzle.Outcome
	req := handlers.AnswerRequest{Answer: answer}
	if err := do(client, http.MethodPost, fmt.Sprintf("%s/v1/investigations/%s/answer", baseURL, id), req, http.StatusOK, &outcome); err != nil {
		return nil, fmt.Errorf("failed to answer: %w", err)
	}
	return &outcome, nil
}

func getSuspicions(client *http.Client, baseURL string, id uuid.UUID) (*handlers.SuspicionsResponse, error) {
	var sus handlers.SuspicionsResponse
	if err := do(client, http.MethodGet, fmt.Sprintf("%s/v1/investigations/%s/suspicions", baseURL, id), nil, http.StatusOK, &sus); err != nil {
		return nil, fmt.Errorf("failed to get suspicions: %w", err)
	}
	return &sus, nil
}

func abandonInvestigation(client *http.Client, baseURL string, id uuid.UUID) (*handlers.InvestigationView, error) {
	var view handlers.InvestigationView
	if err := do(client, http.MethodPost, fmt.Sprintf("%s/v1/investigations/%s/abandon", baseURL, id), nil, http.StatusOK, &view); err != nil {
		return nil, fmt.Errorf("failed to abandon investigation: %w", err)
	}
	return &view, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// listenToSSE connects to the event stream and forwards events until ctx is done
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/investigations/%s/events", baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var current SSEEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = SSEEvent{}
			}
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var payload struct {
				Data map[string]any `json:"data"`
			}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload); err == nil {
				current.Data = payload.Data
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
