// Package vision is the capability boundary for face detection and embedding
// extraction. The pipeline consumes the two interfaces below; Client talks to
// an InsightFace-style sidecar over HTTP. Empty results are a valid "no face"
// outcome, never an error.
package vision

import (
	"context"
	"fmt"
	"image"
)

// Detector locates faces in an image.
type Detector interface {
	// DetectFaces returns one bounding box per face, in detection order.
	DetectFaces(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// Embedder extracts one embedding vector per bounding box.
type Embedder interface {
	// EmbedFaces returns vectors in the same order as boxes.
	EmbedFaces(ctx context.Context, img image.Image, boxes []image.Rectangle) ([][]float32, error)
}

// DetectionError reports a failed detection call. Per-frame callers absorb it
// and drop the frame; it is never fatal to a stream.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("face detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// EmbeddingError reports a failed embedding call.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("face embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
