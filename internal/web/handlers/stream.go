package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/facewatch/internal/camera"
	"github.com/kozaktomas/facewatch/internal/stream"
)

// StreamHandler serves the live MJPEG feed.
type StreamHandler struct {
	controller *stream.Controller
}

// NewStreamHandler creates a new stream handler. A nil controller means the
// deployment has no camera; requests get 503.
func NewStreamHandler(controller *stream.Controller) *StreamHandler {
	return &StreamHandler{controller: controller}
}

// Stream handles GET /api/v1/stream. The response never ends on its own; it
// runs until the client disconnects or the camera fails.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.controller == nil {
		respondError(w, http.StatusServiceUnavailable, "no camera configured")
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "no-cache")

	if err := h.controller.ServeMJPEG(r.Context(), w); err != nil {
		if errors.Is(err, camera.ErrCameraUnavailable) {
			// Acquire failed before any body bytes went out, so a status
			// code still reaches the client.
			respondError(w, http.StatusServiceUnavailable, "camera unavailable")
			return
		}
		log.Printf("stream ended: %v", err)
	}
}
