package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/queue"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

// Enqueuer accepts narrative requests for the workers
type Enqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

// ActivityRequest is narrative input from the driver. Exactly the payload
// matching Type is used.
type ActivityRequest struct {
	Type         queue.RequestType    `json:"type"`
	Conversation *digest.Conversation `json:"conversation,omitempty"`
	Activity     *digest.Activity     `json:"activity,omitempty"`
	Claim        *queue.Claim         `json:"claim,omitempty"`
	Knowledge    *digest.NPCKnowledge `json:"knowledge,omitempty"`
}

type ActivityResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type ActivityHandler struct {
	storage storage.Storage
	queue   Enqueuer
	logger  *slog.Logger
}

func NewActivityHandler(storage storage.Storage, queue Enqueuer, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

// ServeHTTP queues narrative input for an investigation
// POST /v1/investigations/{id}/activity
func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := investigationID(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var body ActivityRequest
	if err := decodeBody(w, r, &body); err != nil {
		h.logger.Warn("Invalid activity request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := queue.NewRequest(id, body.Type)
	switch body.Type {
	case queue.RequestTypeConversation:
		req.Conversation = body.Conversation
	case queue.RequestTypeActivity:
		req.Activity = body.Activity
	case queue.RequestTypeClaim:
		req.Claim = body.Claim
	case queue.RequestTypeKnowledge:
		req.Knowledge = body.Knowledge
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	cs, err := h.storage.LoadCaseState(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load investigation", "investigation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load investigation")
		return
	}
	if cs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Investigation not found")
		return
	}
	if !cs.Active() {
		writeError(w, h.logger, http.StatusConflict, "Investigation is closed")
		return
	}

	if err := h.queue.Enqueue(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue activity", "investigation_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to queue activity")
		return
	}

	h.logger.Info("Activity queued",
		"investigation_id", id.String(),
		"request_id", req.RequestID,
		"type", req.Type)
	writeJSON(w, h.logger, http.StatusAccepted, ActivityResponse{
		RequestID: req.RequestID,
		Status:    "queued",
	})
}
