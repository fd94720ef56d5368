package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/facewatch/internal/vision"
)

// ErrNoFace means an enrollment photo contained no detectable face.
var ErrNoFace = errors.New("no face found in image")

// ErrMultipleFaces means an enrollment photo contained more than one face.
// Enrollment requires an unambiguous subject.
var ErrMultipleFaces = errors.New("multiple faces found in image")

// ExtractEmbedding returns the embedding of the single face in img. The image
// is used at full resolution; enrollment is a one-off, not a per-frame path.
func ExtractEmbedding(ctx context.Context, detector vision.Detector, embedder vision.Embedder, img image.Image) ([]float32, error) {
	boxes, err := detector.DetectFaces(ctx, img)
	if err != nil {
		return nil, err
	}
	switch {
	case len(boxes) == 0:
		return nil, ErrNoFace
	case len(boxes) > 1:
		return nil, fmt.Errorf("%w: got %d", ErrMultipleFaces, len(boxes))
	}

	vectors, err := embedder.EmbedFaces(ctx, img, boxes)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &vision.EmbeddingError{
			Err: fmt.Errorf("embedder returned %d vectors for one box", len(vectors)),
		}
	}
	return vectors[0], nil
}
