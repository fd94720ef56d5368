package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facewatch/internal/camera"
	"github.com/kozaktomas/facewatch/internal/gallery/mock"
	"github.com/kozaktomas/facewatch/internal/pipeline"
	"github.com/kozaktomas/facewatch/internal/stream"
)

func TestStatsHandler_Get(t *testing.T) {
	store := mock.NewStore()
	seedRoster(store)
	handler := NewStatsHandler(store, nil)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp StatsResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.PeopleEnrolled != 2 {
		t.Errorf("expected 2 people enrolled, got %d", resp.PeopleEnrolled)
	}
	if resp.Tolerance != 0.6 {
		t.Errorf("expected default tolerance 0.6, got %v", resp.Tolerance)
	}
}

func TestStatsHandler_Get_ReflectsToggle(t *testing.T) {
	store := mock.NewStore()
	shared := camera.NewShared(func() (camera.Device, error) { return camera.NewFake(1), nil })
	proc := pipeline.NewProcessor(&fakeDetector{}, &fakeEmbedder{})
	controller := stream.NewController(shared, store, proc, testStreamConfig())
	controller.ToggleTolerance()
	handler := NewStatsHandler(store, controller)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))

	var resp StatsResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Tolerance != 0.9 {
		t.Errorf("expected relaxed tolerance 0.9, got %v", resp.Tolerance)
	}
}

func TestStatsHandler_Get_StoreFailure(t *testing.T) {
	store := mock.NewStore()
	store.CountError = errors.New("disk gone")
	handler := NewStatsHandler(store, nil)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/stats", nil))
	assertStatusCode(t, recorder, http.StatusInternalServerError)
}
