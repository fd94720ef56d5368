package vision

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 32, 32))
}

func TestDetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"faces": []map[string]any{
				{"bbox": []int{10, 20, 30, 40}, "det_score": 0.99},
				{"bbox": []int{50, 60, 70, 80}, "det_score": 0.87},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, 128)
	boxes, err := c.DetectFaces(context.Background(), testImage())
	if err != nil {
		t.Fatalf("DetectFaces: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(boxes))
	}
	if boxes[0] != image.Rect(10, 20, 30, 40) {
		t.Errorf("unexpected first box %v", boxes[0])
	}
}

func TestDetectFacesNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"faces": []any{}})
	}))
	defer server.Close()

	c := NewClient(server.URL, 128)
	boxes, err := c.DetectFaces(context.Background(), testImage())
	if err != nil {
		t.Fatalf("no faces must not be an error, got %v", err)
	}
	if len(boxes) != 0 {
		t.Errorf("expected no boxes, got %v", boxes)
	}
}

func TestDetectFacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, 128)
	_, err := c.DetectFaces(context.Background(), testImage())

	var derr *DetectionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DetectionError, got %v", err)
	}
}

func TestEmbedFaces(t *testing.T) {
	vec := make([]float32, 128)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		var coords [][]int
		if err := json.Unmarshal([]byte(r.FormValue("boxes")), &coords); err != nil {
			t.Errorf("parse boxes field: %v", err)
		}
		if len(coords) != 1 || coords[0][0] != 1 {
			t.Errorf("unexpected boxes %v", coords)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{vec},
			"dim":        128,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, 128)
	vecs, err := c.EmbedFaces(context.Background(), testImage(), []image.Rectangle{image.Rect(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("EmbedFaces: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 128 {
		t.Fatalf("expected one 128-dim vector, got %d vectors", len(vecs))
	}
}

func TestEmbedFacesNoBoxes(t *testing.T) {
	c := NewClient("http://localhost:1", 128) // never dialed
	vecs, err := c.EmbedFaces(context.Background(), testImage(), nil)
	if err != nil {
		t.Fatalf("expected nil error for no boxes, got %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil vectors, got %v", vecs)
	}
}

func TestEmbedFacesDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 2, 3}},
			"dim":        3,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, 128)
	_, err := c.EmbedFaces(context.Background(), testImage(), []image.Rectangle{image.Rect(0, 0, 1, 1)})

	var eerr *EmbeddingError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected *EmbeddingError, got %v", err)
	}
}

func TestEmbedFacesCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer server.Close()

	c := NewClient(server.URL, 0)
	_, err := c.EmbedFaces(context.Background(), testImage(), []image.Rectangle{image.Rect(0, 0, 1, 1)})

	var eerr *EmbeddingError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected *EmbeddingError, got %v", err)
	}
}
