package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/pipeline"
	"github.com/kozaktomas/facewatch/internal/vision"
)

// PeopleHandler handles the gallery roster endpoints.
type PeopleHandler struct {
	store    gallery.Store
	detector vision.Detector
	embedder vision.Embedder
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(store gallery.Store, detector vision.Detector, embedder vision.Embedder) *PeopleHandler {
	return &PeopleHandler{store: store, detector: detector, embedder: embedder}
}

// List returns enrolled people, optionally filtered by the q query parameter.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.FindPeople(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("listing people: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list people")
		return
	}
	if people == nil {
		people = []gallery.Person{}
	}
	respondJSON(w, http.StatusOK, people)
}

// Get returns one person by id.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid person id")
		return
	}

	person, err := h.store.GetPerson(r.Context(), id)
	if err != nil {
		log.Printf("getting person %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to get person")
		return
	}
	if person == nil {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	respondJSON(w, http.StatusOK, person)
}

// Create enrolls a person from a multipart form: text fields plus a "photo"
// file containing exactly one face.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	img, err := readImageUpload(r, "photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := gallery.PersonInput{
		Name:       r.FormValue("name"),
		ClassName:  r.FormValue("class_name"),
		RollNumber: r.FormValue("roll_number"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
	}

	vector, err := pipeline.ExtractEmbedding(r.Context(), h.detector, h.embedder, img)
	switch {
	case errors.Is(err, pipeline.ErrNoFace), errors.Is(err, pipeline.ErrMultipleFaces):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		log.Printf("enrolling %s: %v", sanitizeForLog(input.Name), err)
		respondError(w, http.StatusBadGateway, "face service failed")
		return
	}

	id, err := h.store.AddPerson(r.Context(), input, vector)
	if err != nil {
		if errors.Is(err, gallery.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("enrolling %s: %v", sanitizeForLog(input.Name), err)
		respondError(w, http.StatusInternalServerError, "failed to enroll person")
		return
	}

	person, err := h.store.GetPerson(r.Context(), id)
	if err != nil || person == nil {
		// Enrollment succeeded; respond with what we know.
		respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
		return
	}
	respondJSON(w, http.StatusCreated, person)
}
