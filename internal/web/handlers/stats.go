package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/match"
	"github.com/kozaktomas/facewatch/internal/stream"
)

// StatsHandler handles the statistics endpoint.
type StatsHandler struct {
	store      gallery.Store
	controller *stream.Controller
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store gallery.Store, controller *stream.Controller) *StatsHandler {
	return &StatsHandler{store: store, controller: controller}
}

// StatsResponse represents the statistics response.
type StatsResponse struct {
	PeopleEnrolled int     `json:"people_enrolled"`
	Tolerance      float64 `json:"tolerance"`
}

// Get returns the roster size and the active matching tolerance.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		log.Printf("counting people: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count people")
		return
	}

	tolerance := match.DefaultTolerance
	if h.controller != nil {
		tolerance = h.controller.Tolerance()
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		PeopleEnrolled: count,
		Tolerance:      tolerance,
	})
}
