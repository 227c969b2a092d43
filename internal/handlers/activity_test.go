package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
	"github.com/jwebster45206/mystery-engine/pkg/queue"
	"github.com/jwebster45206/mystery-engine/pkg/state"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

type recordingQueue struct {
	mu       sync.Mutex
	requests []*queue.Request
	err      error
}

func (q *recordingQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.requests = append(q.requests, req)
	return nil
}

func activityRig(t *testing.T) (*storage.MockStorage, *recordingQueue, *http.ServeMux, uuid.UUID) {
	t.Helper()
	store := storage.NewMockStorage()
	cs := state.NewCaseState(harbourCase(), puzzle.DefaultScoringRules(), 2)
	require.NoError(t, store.SaveCaseState(context.Background(), cs.ID, cs))

	q := &recordingQueue{}
	mux := http.NewServeMux()
	mux.Handle("POST /v1/investigations/{id}/activity", NewActivityHandler(store, q, testLogger()))
	return store, q, mux, cs.ID
}

func postActivity(mux *http.ServeMux, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/investigations/"+id+"/activity", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestActivityHandler_Enqueue(t *testing.T) {
	_, q, mux, id := activityRig(t)

	rr := postActivity(mux, id.String(), `{
		"type": "claim",
		"claim": {"subject": "kira", "claim": "was seen at the docks", "source": {"type": "npc", "name": "thom", "day": 2}},
		"activity": {"agent": "ignored", "action": "ignored"}
	}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var resp ActivityResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "queued", resp.Status)

	require.Len(t, q.requests, 1)
	got := q.requests[0]
	assert.Equal(t, resp.RequestID, got.RequestID)
	assert.Equal(t, id, got.InvestigationID)
	assert.Equal(t, queue.RequestTypeClaim, got.Type)
	require.NotNil(t, got.Claim)
	assert.Equal(t, "thom", got.Claim.Source.Name)
	assert.Nil(t, got.Activity, "only the payload matching the type is queued")
}

func TestActivityHandler_Errors(t *testing.T) {
	store, q, mux, id := activityRig(t)

	closed, err := store.LoadCaseState(context.Background(), id)
	require.NoError(t, err)
	closed.ID = uuid.New()
	closed.Progress.Status = puzzle.CaseSolved
	require.NoError(t, store.SaveCaseState(context.Background(), closed.ID, closed))

	tests := []struct {
		name           string
		id             string
		body           string
		expectedStatus int
	}{
		{"bad id", "nope", `{"type":"activity"}`, http.StatusBadRequest},
		{"unknown type", id.String(), `{"type":"chat"}`, http.StatusBadRequest},
		{"missing payload", id.String(), `{"type":"activity"}`, http.StatusBadRequest},
		{"unknown investigation", uuid.NewString(), `{"type":"activity","activity":{"agent":"kira","action":"rowed out"}}`, http.StatusNotFound},
		{"closed investigation", closed.ID.String(), `{"type":"activity","activity":{"agent":"kira","action":"rowed out"}}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postActivity(mux, tt.id, tt.body)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
	assert.Empty(t, q.requests)

	q.err = errors.New("redis down")
	rr := postActivity(mux, id.String(), `{"type":"activity","activity":{"agent":"kira","action":"rowed out"}}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
