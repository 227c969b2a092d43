package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

// CaseSummary names one available case file
type CaseSummary struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
}

type CaseHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewCaseHandler(storage storage.Storage, logger *slog.Logger) *CaseHandler {
	return &CaseHandler{
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP lists the case files an investigation can be opened on
// GET /v1/cases
func (h *CaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cases, err := h.storage.ListCaseFiles(r.Context())
	if err != nil {
		h.logger.Error("Failed to list case files", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list case files")
		return
	}

	out := make([]CaseSummary, 0, len(cases))
	for name, file := range cases {
		out = append(out, CaseSummary{Name: name, FileName: file})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	writeJSON(w, h.logger, http.StatusOK, out)
}
