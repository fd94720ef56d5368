package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/match"
	"github.com/kozaktomas/facewatch/internal/pipeline"
	"github.com/kozaktomas/facewatch/internal/stream"
	"github.com/kozaktomas/facewatch/internal/vision"
)

// MatchHandler identifies the faces in an uploaded photo against the gallery.
type MatchHandler struct {
	store      gallery.Store
	processor  *pipeline.Processor
	controller *stream.Controller
}

// NewMatchHandler creates a new match handler. Uploaded photos are processed
// at full resolution; the stream downscale is a webcam throughput knob.
// Classification goes through an HNSW index, rebuilt whenever the gallery
// snapshot changes, so bursts of requests amortize the build.
func NewMatchHandler(store gallery.Store, detector vision.Detector, embedder vision.Embedder, controller *stream.Controller) *MatchHandler {
	processor, err := pipeline.NewProcessorWithScale(detector, embedder, 1)
	if err != nil {
		// Scale 1 is always valid.
		panic(err)
	}
	processor.UseIndex(match.NewIndex(&gallery.Snapshot{}))
	return &MatchHandler{store: store, processor: processor, controller: controller}
}

// MatchResponse lists the detected faces of one uploaded photo.
type MatchResponse struct {
	Faces     []pipeline.Detection `json:"faces"`
	Tolerance float64              `json:"tolerance"`
}

// Match handles POST /api/v1/match: a multipart "photo" file in, one
// detection per face out. A photo with no faces is a valid empty result.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	img, err := readImageUpload(r, "photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tolerance := h.tolerance()
	if s := r.URL.Query().Get("tolerance"); s != "" {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil || t <= 0 {
			respondError(w, http.StatusBadRequest, "invalid tolerance")
			return
		}
		tolerance = t
	}

	snap, err := h.store.Snapshot(r.Context())
	if err != nil {
		log.Printf("matching photo: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load gallery")
		return
	}

	detections, err := h.processor.Process(r.Context(), img, snap, tolerance)
	if err != nil {
		log.Printf("matching photo: %v", err)
		respondError(w, http.StatusBadGateway, "face service failed")
		return
	}
	if detections == nil {
		detections = []pipeline.Detection{}
	}

	respondJSON(w, http.StatusOK, MatchResponse{Faces: detections, Tolerance: tolerance})
}

func (h *MatchHandler) tolerance() float64 {
	if h.controller != nil {
		return h.controller.Tolerance()
	}
	return match.DefaultTolerance
}
