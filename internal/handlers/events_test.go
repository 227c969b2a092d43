package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/internal/services/events"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
)

// readEvent reads lines until a complete SSE event and returns its type and data
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var eventType, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestEventsHandler_Stream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /v1/investigations/{id}/events", NewEventsHandler(client, testLogger()))
	server := httptest.NewServer(mux)
	defer server.Close()

	id := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/investigations/"+id.String()+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	eventType, data := readEvent(t, reader)
	assert.Equal(t, "connected", eventType)
	assert.Contains(t, data, id.String())

	b := events.NewBroadcaster(client, testLogger())
	require.NoError(t, b.PublishContradiction(ctx, id, "req-7", facts.Contradiction{
		FactA:       &facts.Fact{ID: "fact_a", Subject: "kira"},
		FactB:       &facts.Fact{ID: "fact_b", Subject: "kira"},
		Description: "they disagree",
	}))

	eventType, data = readEvent(t, reader)
	assert.Equal(t, string(events.EventTypeContradiction), eventType)
	var event events.Event
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, "req-7", event.RequestID)
	assert.Equal(t, "kira", event.Data["subject"])

	cancel()
}

func TestEventsHandler_BadID(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /v1/investigations/{id}/events", NewEventsHandler(client, testLogger()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/investigations/nope/events", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
