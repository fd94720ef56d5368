// Package pipeline turns a raw video frame into detected-face boxes with
// identity labels: downscale, detect, embed, classify, upscale.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/match"
	"github.com/kozaktomas/facewatch/internal/vision"
)

// ScaleFactor is the detection downscale applied to every frame. Purely a
// throughput knob; boxes are mapped back to full resolution afterwards.
const ScaleFactor = 0.25

// Detection pairs a full-resolution bounding box with the identity decision
// for the face inside it. Person carries the matched record, nil for Unknown.
type Detection struct {
	Box    image.Rectangle `json:"box"`
	Result match.Result    `json:"result"`
	Person *gallery.Person `json:"person,omitempty"`
}

// Processor runs the per-frame recognition pipeline. It holds no mutable
// state, so one instance is safe for concurrent frames given immutable
// snapshots.
type Processor struct {
	detector vision.Detector
	embedder vision.Embedder
	scale    float64
	classify func(probe []float32, snap *gallery.Snapshot, tolerance float64) match.Result
}

// NewProcessor creates a processor with the default downscale factor.
func NewProcessor(detector vision.Detector, embedder vision.Embedder) *Processor {
	return &Processor{detector: detector, embedder: embedder, scale: ScaleFactor, classify: match.Classify}
}

// NewProcessorWithScale overrides the downscale factor. scale must be in (0, 1].
func NewProcessorWithScale(detector vision.Detector, embedder vision.Embedder, scale float64) (*Processor, error) {
	if scale <= 0 || scale > 1 {
		return nil, fmt.Errorf("downscale factor must be in (0, 1], got %v", scale)
	}
	return &Processor{detector: detector, embedder: embedder, scale: scale, classify: match.Classify}, nil
}

// UseIndex routes classification through an ANN index instead of the linear
// scan. The index rebuilds itself when it sees a new snapshot.
func (p *Processor) UseIndex(idx *match.Index) {
	p.classify = idx.ClassifySnapshot
}

// Process classifies every face in the frame against the snapshot. The output
// has exactly one entry per detected face, in detection order. Detection and
// embedding failures are returned to the caller, which absorbs them per frame.
func (p *Processor) Process(ctx context.Context, frame image.Image, snap *gallery.Snapshot, tolerance float64) ([]Detection, error) {
	small := downscale(frame, p.scale)

	boxes, err := p.detector.DetectFaces(ctx, small)
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	vectors, err := p.embedder.EmbedFaces(ctx, small, boxes)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(boxes) {
		return nil, &vision.EmbeddingError{
			Err: fmt.Errorf("embedder returned %d vectors for %d boxes", len(vectors), len(boxes)),
		}
	}

	inv := 1 / p.scale
	detections := make([]Detection, len(boxes))
	for i, box := range boxes {
		result := p.classify(vectors[i], snap, tolerance)
		d := Detection{
			Box:    upscaleBox(box, inv),
			Result: result,
		}
		if result.Known {
			d.Person = snap.Person(result.PersonID)
		}
		detections[i] = d
	}
	return detections, nil
}

// downscale resizes the frame by factor using bilinear interpolation; quality
// does not matter here, only speed.
func downscale(img image.Image, factor float64) image.Image {
	if factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, draw.Src, nil)
	return small
}

// upscaleBox maps a detection box back to full-resolution coordinates.
func upscaleBox(box image.Rectangle, inv float64) image.Rectangle {
	return image.Rect(
		int(math.Round(float64(box.Min.X)*inv)),
		int(math.Round(float64(box.Min.Y)*inv)),
		int(math.Round(float64(box.Max.X)*inv)),
		int(math.Round(float64(box.Max.Y)*inv)),
	)
}
