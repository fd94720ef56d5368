package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http/httptest"
	"testing"
)

// fakeDetector returns a fixed set of boxes or a scripted error.
type fakeDetector struct {
	boxes []image.Rectangle
	err   error
}

func (d *fakeDetector) DetectFaces(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.boxes, nil
}

// fakeEmbedder returns one copy of vector per box or a scripted error.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) EmbedFaces(ctx context.Context, img image.Image, boxes []image.Rectangle) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(boxes))
	for i := range vectors {
		vectors[i] = e.vector
	}
	return vectors, nil
}

// photoUpload builds a multipart body with an encoded JPEG under "photo"
// plus the given text fields. Returns the body and its content type.
func photoUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if err := jpeg.Encode(fw, image.NewRGBA(image.Rect(0, 0, 64, 64)), nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, recorder.Code, recorder.Body.String())
	}
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), into); err != nil {
		t.Fatalf("parsing response body: %v\n%s", err, recorder.Body.String())
	}
}
