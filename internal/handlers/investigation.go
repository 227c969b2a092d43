package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/internal/config"
	"github.com/jwebster45206/mystery-engine/internal/services/events"
	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/liedetector"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
	"github.com/jwebster45206/mystery-engine/pkg/state"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

var (
	errNotFound = errors.New("investigation not found")
	errLocked   = errors.New("investigation is busy")
)

const (
	lockTTL      = 30 * time.Second
	lockAttempts = 5
	lockBackoff  = 100 * time.Millisecond
)

type CreateInvestigationRequest struct {
	CaseFile string `json:"case_file"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type ResolveRequest struct {
	Status facts.Status `json:"status"`
}

// InvestigationView is what a player sees of an investigation. Pending
// puzzles are redacted and the fact ledger is reduced to counts.
type InvestigationView struct {
	ID                   uuid.UUID            `json:"id"`
	CaseFile             string               `json:"case_file"`
	CaseName             string               `json:"case_name"`
	Difficulty           int                  `json:"difficulty"`
	Progress             *puzzle.CaseProgress `json:"progress"`
	Facts                int                  `json:"facts"`
	SuspiciousFacts      int                  `json:"suspicious_facts"`
	PendingConversations int                  `json:"pending_conversations"`
	PendingActivities    int                  `json:"pending_activities"`
	LastVisit            time.Time            `json:"last_visit"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

type DigestResponse struct {
	Digest   *digest.DailyDigest  `json:"digest"`
	Progress *puzzle.CaseProgress `json:"progress"`
	New      bool                 `json:"new"`
}

type SuspicionsResponse struct {
	Text  string        `json:"text"`
	Facts []*facts.Fact `json:"facts"`
}

type InvestigationHandler struct {
	storage       storage.Storage
	broadcaster   *events.Broadcaster
	rules         puzzle.ScoringRules
	difficulty    int
	contentRating string
	logger        *slog.Logger
}

// NewInvestigationHandler serves the investigation lifecycle. broadcaster
// may be nil.
func NewInvestigationHandler(cfg *config.Config, storage storage.Storage, broadcaster *events.Broadcaster, logger *slog.Logger) *InvestigationHandler {
	return &InvestigationHandler{
		storage:       storage,
		broadcaster:   broadcaster,
		rules:         cfg.Scoring,
		difficulty:    cfg.PuzzleDifficulty,
		contentRating: cfg.ContentRating,
		logger:        logger,
	}
}

// Register adds the investigation routes to mux
func (h *InvestigationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/investigations", h.handleCreate)
	mux.HandleFunc("GET /v1/investigations/{id}", h.handleRead)
	mux.HandleFunc("DELETE /v1/investigations/{id}", h.handleDelete)
	mux.HandleFunc("GET /v1/investigations/{id}/digest", h.handleDigest)
	mux.HandleFunc("POST /v1/investigations/{id}/answer", h.handleAnswer)
	mux.HandleFunc("POST /v1/investigations/{id}/abandon", h.handleAbandon)
	mux.HandleFunc("GET /v1/investigations/{id}/suspicions", h.handleSuspicions)
	mux.HandleFunc("POST /v1/investigations/{id}/facts/{factID}/resolve", h.handleResolve)
}

func newView(cs *state.CaseState) InvestigationView {
	progress := cs.Progress.Clone()
	if progress != nil {
		progress.TodaysPuzzle = progress.TodaysPuzzle.Redacted()
	}
	ledger := cs.Ledger()
	convs, acts := cs.Digests().Pending()
	return InvestigationView{
		ID:                   cs.ID,
		CaseFile:             cs.CaseFile,
		CaseName:             cs.CaseName,
		Difficulty:           cs.Difficulty,
		Progress:             progress,
		Facts:                ledger.Len(),
		SuspiciousFacts:      len(ledger.GetSuspiciousFacts()),
		PendingConversations: convs,
		PendingActivities:    acts,
		LastVisit:            cs.LastVisit,
		CreatedAt:            cs.CreatedAt,
		UpdatedAt:            cs.UpdatedAt,
	}
}

func (h *InvestigationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateInvestigationRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid create request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.CaseFile = strings.TrimSpace(req.CaseFile)
	if req.CaseFile == "" {
		writeError(w, h.logger, http.StatusBadRequest, "case_file is required")
		return
	}
	if !strings.HasSuffix(req.CaseFile, casefile.Extension) {
		req.CaseFile += casefile.Extension
	}

	cf, err := h.storage.GetCaseFile(r.Context(), req.CaseFile)
	if err != nil {
		if errors.Is(err, storage.ErrCaseFileNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Case file not found")
			return
		}
		h.logger.Error("Failed to load case file", "case_file", req.CaseFile, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load case file")
		return
	}

	cs := state.NewCaseState(cf, h.rules, h.difficulty)
	if cs.ContentRating == "" {
		cs.ContentRating = h.contentRating
	}
	if err := h.storage.SaveCaseState(r.Context(), cs.ID, cs); err != nil {
		h.logger.Error("Failed to save investigation", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save investigation")
		return
	}

	h.logger.Info("Investigation opened",
		"investigation_id", cs.ID.String(),
		"case_file", cs.CaseFile,
		"facts", len(cs.Facts.Facts))
	writeJSON(w, h.logger, http.StatusCreated, newView(cs))
}

func (h *InvestigationHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	cs, err := h.load(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, id, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newView(cs))
}

func (h *InvestigationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.load(r.Context(), id); err != nil {
		h.writeLoadError(w, id, err)
		return
	}
	if err := h.storage.DeleteCaseState(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete investigation", "investigation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete investigation")
		return
	}
	h.logger.Info("Investigation deleted", "investigation_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// handleDigest returns the digest of everything since the last visit. A new
// digest and puzzle are generated at most once per day; otherwise the last
// digest is returned with its puzzle's expiry refreshed.
func (h *InvestigationHandler) handleDigest(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var resp DigestResponse
	var generated *puzzle.Puzzle
	err = h.withLock(r.Context(), id, func(cs *state.CaseState) (bool, error) {
		engine := cs.Engine()
		if engine.Refresh(cs.Progress.TodaysPuzzle) {
			syncDigestPuzzle(cs, cs.Progress.TodaysPuzzle)
		}

		if engine.IsPuzzleAvailable(cs.Progress) {
			now := time.Now()
			gen := cs.Digests()
			d := gen.GenerateDigest(cs.LastVisit, engine)
			gen.ClearProcessedEvents(now)
			cs.Progress.TodaysPuzzle = d.Puzzle.Clone()
			cs.LastDigest = d
			cs.LastVisit = now
			cs.Capture(nil, gen)
			generated = d.Puzzle
			resp.New = true
		}

		if cs.LastDigest == nil {
			return false, errNoDigest
		}
		resp.Digest = cs.LastDigest.Redacted()
		resp.Progress = newView(cs).Progress
		return true, nil
	})
	if err != nil {
		h.writeLockedError(w, id, err)
		return
	}

	if generated != nil {
		h.logger.Info("Digest generated",
			"investigation_id", id.String(),
			"events", len(resp.Digest.Events),
			"puzzle_id", generated.ID)
		if err := h.broadcaster.PublishPuzzleGenerated(r.Context(), id, generated.Redacted()); err != nil {
			h.logger.Warn("Failed to publish puzzle event", "investigation_id", id.String(), "error", err)
		}
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

var errNoDigest = errors.New("no digest available")

// syncDigestPuzzle copies p over the stored digest's puzzle when they match
func syncDigestPuzzle(cs *state.CaseState, p *puzzle.Puzzle) {
	if p == nil || cs.LastDigest == nil || cs.LastDigest.Puzzle == nil {
		return
	}
	if cs.LastDigest.Puzzle.ID == p.ID {
		cs.LastDigest.Puzzle = p.Clone()
	}
}

func (h *InvestigationHandler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	var req AnswerRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.Answer) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "answer is required")
		return
	}

	var outcome *puzzle.Outcome
	var newlySolved bool
	err = h.withLock(r.Context(), id, func(cs *state.CaseState) (bool, error) {
		p := cs.Progress.TodaysPuzzle
		if p == nil && cs.LastDigest != nil {
			p = cs.LastDigest.Puzzle
		}
		if p == nil {
			return false, errNoPuzzle
		}

		wasSolved := cs.Progress.Status == puzzle.CaseSolved
		out, err := cs.Engine().SolvePuzzle(p, req.Answer, cs.Progress)
		if err != nil {
			return false, err
		}
		cs.Progress = out.Progress
		syncDigestPuzzle(cs, out.Puzzle)
		cs.Capture(nil, nil)

		outcome = out
		newlySolved = !wasSolved && cs.Progress.Status == puzzle.CaseSolved
		return true, nil
	})
	if err != nil {
		h.writeLockedError(w, id, err)
		return
	}

	h.logger.Info("Puzzle answered",
		"investigation_id", id.String(),
		"puzzle_id", outcome.Puzzle.ID,
		"status", outcome.Puzzle.Status,
		"points", outcome.Result.PointsEarned)

	if err := h.broadcaster.PublishPuzzleResolved(r.Context(), id, outcome.Puzzle, outcome.Result); err != nil {
		h.logger.Warn("Failed to publish puzzle event", "investigation_id", id.String(), "error", err)
	}
	if newlySolved {
		if err := h.broadcaster.PublishCaseSolved(r.Context(), id, outcome.Progress); err != nil {
			h.logger.Warn("Failed to publish case event", "investigation_id", id.String(), "error", err)
		}
	}
	writeJSON(w, h.logger, http.StatusOK, outcome)
}

var errNoPuzzle = errors.New("no puzzle to answer")

func (h *InvestigationHandler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var view InvestigationView
	err = h.withLock(r.Context(), id, func(cs *state.CaseState) (bool, error) {
		cs.Progress = cs.Engine().Abandon(cs.Progress)
		cs.Capture(nil, nil)
		view = newView(cs)
		return true, nil
	})
	if err != nil {
		h.writeLockedError(w, id, err)
		return
	}
	h.logger.Info("Investigation abandoned", "investigation_id", id.String(), "status", view.Progress.Status)
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *InvestigationHandler) handleSuspicions(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	cs, err := h.load(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, id, err)
		return
	}

	suspicious := cs.Ledger().GetSuspiciousFacts()
	if suspicious == nil {
		suspicious = []*facts.Fact{}
	}
	writeJSON(w, h.logger, http.StatusOK, SuspicionsResponse{
		Text:  liedetector.FormatSuspicions(suspicious),
		Facts: suspicious,
	})
}

func (h *InvestigationHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	factID := r.PathValue("factID")
	var req ResolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	var resolved facts.Fact
	err = h.withLock(r.Context(), id, func(cs *state.CaseState) (bool, error) {
		ledger := cs.Ledger()
		f, err := ledger.Resolve(factID, req.Status)
		if err != nil {
			return false, err
		}
		resolved = *f
		cs.Capture(ledger, nil)
		return true, nil
	})
	switch {
	case errors.Is(err, facts.ErrInvalidResolution):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, facts.ErrFactNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Fact not found")
		return
	case err != nil:
		h.writeLockedError(w, id, err)
		return
	}

	h.logger.Info("Fact resolved",
		"investigation_id", id.String(),
		"fact_id", factID,
		"status", resolved.Status)
	writeJSON(w, h.logger, http.StatusOK, resolved)
}

// load returns errNotFound when the investigation does not exist
func (h *InvestigationHandler) load(ctx context.Context, id uuid.UUID) (*state.CaseState, error) {
	cs, err := h.storage.LoadCaseState(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, errNotFound
	}
	return cs, nil
}

// withLock loads the investigation under its lock and runs fn. The state is
// saved when fn reports a change. The lock is shared with the workers.
func (h *InvestigationHandler) withLock(ctx context.Context, id uuid.UUID, fn func(cs *state.CaseState) (bool, error)) error {
	owner := "api-" + uuid.NewString()
	acquired := false
	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := h.storage.AcquireLock(ctx, id, owner, lockTTL)
		if err != nil {
			return err
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	if !acquired {
		return errLocked
	}
	defer func() {
		if err := h.storage.ReleaseLock(context.WithoutCancel(ctx), id, owner); err != nil {
			h.logger.Warn("Failed to release investigation lock", "investigation_id", id.String(), "error", err)
		}
	}()

	cs, err := h.load(ctx, id)
	if err != nil {
		return err
	}
	changed, err := fn(cs)
	if err != nil {
		return err
	}
	if changed {
		if err := h.storage.SaveCaseState(ctx, id, cs); err != nil {
			return err
		}
	}
	return nil
}

func (h *InvestigationHandler) writeLoadError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, errNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Investigation not found")
		return
	}
	h.logger.Error("Failed to load investigation", "investigation_id", id.String(), "error", err)
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to load investigation")
}

func (h *InvestigationHandler) writeLockedError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, errLocked):
		w.Header().Set("Retry-After", "1")
		writeError(w, h.logger, http.StatusServiceUnavailable, "Investigation is busy, try again")
	case errors.Is(err, errNoDigest):
		writeError(w, h.logger, http.StatusNotFound, "No digest available")
	case errors.Is(err, errNoPuzzle):
		writeError(w, h.logger, http.StatusNotFound, "No puzzle to answer")
	case errors.Is(err, puzzle.ErrPuzzleNotPending):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	default:
		h.writeLoadError(w, id, err)
	}
}
