package handlers

import (
	"net/http"
)

// Router bundles the API handlers. Events may be nil when no Redis client is
// available for streaming.
type Router struct {
	Health         *HealthHandler
	Cases          *CaseHandler
	Investigations *InvestigationHandler
	Activity       *ActivityHandler
	Events         *EventsHandler
}

// Mux registers every route on a new ServeMux
func (rt Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /health", rt.Health)
	mux.Handle("GET /v1/cases", rt.Cases)
	rt.Investigations.Register(mux)
	mux.Handle("POST /v1/investigations/{id}/activity", rt.Activity)
	if rt.Events != nil {
		mux.Handle("GET /v1/investigations/{id}/events", rt.Events)
	}
	return mux
}
