package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/internal/config"
	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testConfig() *config.Config {
	return &config.Config{
		Scoring:          puzzle.DefaultScoringRules(),
		PuzzleDifficulty: 2,
		ContentRating:    "PG13",
	}
}

func harbourCase() *casefile.CaseFile {
	return &casefile.CaseFile{
		ID:   "harbour_lantern",
		Name: "The Harbour Lantern",
		NPCs: []digest.NPCKnowledge{
			{Agent: "kira", Facts: []string{"The lighthouse lamp was lit at dusk."}, Lies: []string{"I was home all night."}},
			{Agent: "thom", Facts: []string{"The ferry left an hour late."}, Lies: []string{"I never met the stranger."}},
		},
		SeedFacts: []casefile.SeedFact{
			{Subject: "kira", Claim: "was home all night", Source: facts.Source{Type: facts.SourceNPC, Name: "kira", Day: 1}},
			{Subject: "kira", Claim: "was seen at the docks", Source: facts.Source{Type: facts.SourceNPC, Name: "thom", Day: 1}},
		},
	}
}

type apiRig struct {
	storage *storage.MockStorage
	mux     *http.ServeMux
}

func newAPIRig() *apiRig {
	store := storage.NewMockStorage()
	store.AddCaseFile("harbour_lantern.yaml", harbourCase())
	mux := http.NewServeMux()
	NewInvestigationHandler(testConfig(), store, nil, testLogger()).Register(mux)
	return &apiRig{storage: store, mux: mux}
}

func (rig *apiRig) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	rig.mux.ServeHTTP(rr, req)
	return rr
}

func (rig *apiRig) create(t *testing.T) InvestigationView {
	t.Helper()
	rr := rig.do(t, http.MethodPost, "/v1/investigations", `{"case_file":"harbour_lantern"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
	var view InvestigationView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return view
}

func TestInvestigationHandler_Create(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)

	if view.ID == uuid.Nil {
		t.Error("Expected non-nil investigation ID")
	}
	assert.Equal(t, "harbour_lantern.yaml", view.CaseFile)
	assert.Equal(t, 2, view.Facts)
	assert.Equal(t, 2, view.SuspiciousFacts)
	assert.Equal(t, 2, view.Difficulty)
	require.NotNil(t, view.Progress)
	assert.Equal(t, puzzle.CaseActive, view.Progress.Status)

	cs, err := rig.storage.LoadCaseState(context.Background(), view.ID)
	require.NoError(t, err)
	require.NotNil(t, cs)
	assert.Equal(t, "PG13", cs.ContentRating, "config rating applies when the case has none")
}

func TestInvestigationHandler_CreateErrors(t *testing.T) {
	rig := newAPIRig()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"unknown case", `{"case_file":"drowned_bell.yaml"}`, http.StatusNotFound},
		{"missing case file", `{"case_file":"  "}`, http.StatusBadRequest},
		{"unknown field", `{"case_file":"harbour_lantern","villain":"thom"}`, http.StatusBadRequest},
		{"malformed json", `{"case_file":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := rig.do(t, http.MethodPost, "/v1/investigations", tt.body)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Response body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestInvestigationHandler_ReadAndDelete(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)
	path := "/v1/investigations/" + view.ID.String()

	rr := rig.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got InvestigationView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, view.ID, got.ID)
	assert.Equal(t, "The Harbour Lantern", got.CaseName)

	rr = rig.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = rig.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = rig.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = rig.do(t, http.MethodGet, "/v1/investigations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInvestigationHandler_DigestAndAnswer(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)
	base := "/v1/investigations/" + view.ID.String()
	ctx := context.Background()

	cs, err := rig.storage.LoadCaseState(ctx, view.ID)
	require.NoError(t, err)
	gen := cs.Digests()
	gen.RecordConversation(digest.Conversation{Participants: []string{"kira", "thom"}, Topic: "the storm"})
	cs.Capture(nil, gen)
	require.NoError(t, rig.storage.SaveCaseState(ctx, view.ID, cs))

	rr := rig.do(t, http.MethodGet, base+"/digest", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first DigestResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&first))
	assert.True(t, first.New)
	require.NotNil(t, first.Digest)
	require.Len(t, first.Digest.Events, 1)
	assert.Empty(t, first.Digest.Events[0].Facts, "digest facts would give the answer away")
	require.NotNil(t, first.Digest.Puzzle)
	assert.Empty(t, first.Digest.Puzzle.CorrectAnswer)
	assert.Equal(t, puzzle.StatusPending, first.Digest.Puzzle.Status)

	stored, err := rig.storage.LoadCaseState(ctx, view.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Progress.TodaysPuzzle)
	answer := stored.Progress.TodaysPuzzle.CorrectAnswer
	require.NotEmpty(t, answer)
	convs, _ := stored.Digests().Pending()
	assert.Equal(t, 0, convs, "consumed events are cleared")

	rr = rig.do(t, http.MethodGet, base+"/digest", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var second DigestResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&second))
	assert.False(t, second.New)
	assert.Equal(t, first.Digest.Puzzle.ID, second.Digest.Puzzle.ID)

	rr = rig.do(t, http.MethodPost, base+"/answer", `{"answer":"`+answer+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var outcome puzzle.Outcome
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&outcome))
	assert.True(t, outcome.Result.Correct)
	assert.Equal(t, 20, outcome.Result.PointsEarned)
	assert.Equal(t, puzzle.StatusSolved, outcome.Puzzle.Status)
	assert.Equal(t, answer, outcome.Puzzle.CorrectAnswer)
	assert.Equal(t, 20, outcome.Progress.ProgressPoints)

	rr = rig.do(t, http.MethodPost, base+"/answer", `{"answer":"1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = rig.do(t, http.MethodGet, base+"/digest", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var third DigestResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&third))
	assert.False(t, third.New, "one puzzle per day")
	assert.Equal(t, puzzle.StatusSolved, third.Digest.Puzzle.Status)
}

func TestInvestigationHandler_AnswerWithoutPuzzle(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)

	rr := rig.do(t, http.MethodPost, "/v1/investigations/"+view.ID.String()+"/answer", `{"answer":"2"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = rig.do(t, http.MethodPost, "/v1/investigations/"+view.ID.String()+"/answer", `{"answer":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInvestigationHandler_LockHeld(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)

	ok, err := rig.storage.AcquireLock(context.Background(), view.ID, "worker-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	rr := rig.do(t, http.MethodGet, "/v1/investigations/"+view.ID.String()+"/digest", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, "worker-1", rig.storage.LockOwner(view.ID))
}

func TestInvestigationHandler_ReleasesLock(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)

	rr := rig.do(t, http.MethodGet, "/v1/investigations/"+view.ID.String()+"/digest", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rig.storage.LockOwner(view.ID))
}

func TestInvestigationHandler_SuspicionsAndResolve(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)
	base := "/v1/investigations/" + view.ID.String()

	rr := rig.do(t, http.MethodGet, base+"/suspicions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var sus SuspicionsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sus))
	require.Len(t, sus.Facts, 2)
	assert.Contains(t, sus.Text, "About kira:")

	var homeID, docksID string
	for _, f := range sus.Facts {
		switch f.Claim {
		case "was home all night":
			homeID = f.ID
		case "was seen at the docks":
			docksID = f.ID
		}
	}
	require.NotEmpty(t, homeID)
	require.NotEmpty(t, docksID)

	rr = rig.do(t, http.MethodPost, base+"/facts/"+docksID+"/resolve", `{"status":"truth"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resolved facts.Fact
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resolved))
	assert.Equal(t, facts.StatusTruth, resolved.Status)
	assert.Equal(t, 1.0, resolved.Confidence)

	cs, err := rig.storage.LoadCaseState(context.Background(), view.ID)
	require.NoError(t, err)
	home, ok := cs.Ledger().Get(homeID)
	require.True(t, ok)
	assert.Equal(t, facts.StatusLie, home.Status)

	rr = rig.do(t, http.MethodGet, base+"/suspicions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sus))
	assert.Empty(t, sus.Facts)
	assert.Equal(t, "Nothing seems out of place yet.", sus.Text)

	rr = rig.do(t, http.MethodPost, base+"/facts/"+homeID+"/resolve", `{"status":"verified"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = rig.do(t, http.MethodPost, base+"/facts/fact_missing/resolve", `{"status":"lie"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInvestigationHandler_Abandon(t *testing.T) {
	rig := newAPIRig()
	view := rig.create(t)
	base := "/v1/investigations/" + view.ID.String()

	rr := rig.do(t, http.MethodPost, base+"/abandon", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got InvestigationView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, puzzle.CaseAbandoned, got.Progress.Status)

	rr = rig.do(t, http.MethodGet, base+"/digest", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "closed case without a digest")
}
