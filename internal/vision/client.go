package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultFaceServiceURL = "http://localhost:8000"

// Client calls the face service over HTTP. /detect returns bounding boxes,
// /embed returns one vector per requested box.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates a face service client. dim is the expected embedding
// dimension; responses with a different dimension are rejected.
func NewClient(baseURL string, dim int) *Client {
	if baseURL == "" {
		baseURL = defaultFaceServiceURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
	}
}

type detectResponse struct {
	Faces []struct {
		BBox     []int   `json:"bbox"` // [x1, y1, x2, y2]
		DetScore float64 `json:"det_score"`
	} `json:"faces"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dim        int         `json:"dim"`
}

// postImage posts a JPEG-encoded frame as multipart form data, with box
// coordinates in an extra form field when present.
func (c *Client) postImage(ctx context.Context, endpoint string, img image.Image, boxes []image.Rectangle) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	if boxes != nil {
		coords := make([][]int, len(boxes))
		for i, b := range boxes {
			coords[i] = []int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
		}
		encoded, err := json.Marshal(coords)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal boxes: %w", err)
		}
		if err := writer.WriteField("boxes", string(encoded)); err != nil {
			return nil, fmt.Errorf("failed to write boxes field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("face service error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// DetectFaces returns the bounding box of every face in the image, in the
// service's detection order. No faces is a valid empty result.
func (c *Client) DetectFaces(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	body, err := c.postImage(ctx, "/detect", img, nil)
	if err != nil {
		return nil, &DetectionError{Err: err}
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DetectionError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	boxes := make([]image.Rectangle, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.BBox) != 4 {
			return nil, &DetectionError{Err: fmt.Errorf("malformed bbox %v", f.BBox)}
		}
		boxes = append(boxes, image.Rect(f.BBox[0], f.BBox[1], f.BBox[2], f.BBox[3]))
	}
	return boxes, nil
}

// EmbedFaces returns one vector per box, in box order.
func (c *Client) EmbedFaces(ctx context.Context, img image.Image, boxes []image.Rectangle) ([][]float32, error) {
	if len(boxes) == 0 {
		return nil, nil
	}

	body, err := c.postImage(ctx, "/embed", img, boxes)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(resp.Embeddings) != len(boxes) {
		return nil, &EmbeddingError{Err: fmt.Errorf("expected %d embeddings, got %d", len(boxes), len(resp.Embeddings))}
	}
	for i, vec := range resp.Embeddings {
		if c.dim > 0 && len(vec) != c.dim {
			return nil, &EmbeddingError{Err: fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(vec), c.dim)}
		}
	}
	return resp.Embeddings, nil
}
