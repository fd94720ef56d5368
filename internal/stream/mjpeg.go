package stream

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/kozaktomas/facewatch/internal/pipeline"
)

// Boundary separates the parts of the MJPEG multipart stream. Clients
// request the feed with Content-Type multipart/x-mixed-replace.
const Boundary = "frame"

// ContentType is the response content type for the MJPEG endpoint.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// jpegQuality trades bandwidth for detail on streamed frames.
const jpegQuality = 80

// ServeMJPEG writes an endless MJPEG stream of annotated frames to w,
// typically an http.ResponseWriter. Each consumer runs its own loop: the
// camera read is the only serialized step, everything downstream happens
// outside the lock so a slow consumer never stalls the others. There is no
// frame queue; a consumer that cannot keep up simply sees fewer frames.
// Returns nil when the consumer disconnects or the context is cancelled.
func (c *Controller) ServeMJPEG(ctx context.Context, w io.Writer) error {
	id := uuid.NewString()[:8]

	if err := c.camera.Acquire(); err != nil {
		return fmt.Errorf("acquire camera: %w", err)
	}
	defer c.camera.Release()

	snap, err := c.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load gallery snapshot: %w", err)
	}
	log.Printf("mjpeg consumer %s connected, %d people enrolled", id, snap.Len())
	defer log.Printf("mjpeg consumer %s disconnected", id)

	var (
		frameNum       int
		lastDetections []pipeline.Detection
		buf            bytes.Buffer
	)

	for {
		if err := ctx.Err(); err != nil {
			if errIsCanceled(err) {
				return nil
			}
			return err
		}
		if c.MaxFrames > 0 && frameNum >= c.MaxFrames {
			return nil
		}

		frame, err := c.camera.Read()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		if frameNum%c.frameSkip == 0 {
			detections, err := c.processor.Process(ctx, frame, snap, c.Tolerance())
			if err != nil {
				log.Printf("mjpeg consumer %s: frame %d skipped: %v", id, frameNum, err)
			} else {
				lastDetections = detections
			}
		}
		frameNum++

		annotated := pipeline.Annotate(frame, lastDetections)

		buf.Reset()
		if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
		if err := writePart(w, buf.Bytes()); err != nil {
			// Broken pipe means the browser went away; not an error worth
			// surfacing to the caller.
			return nil
		}
		if f, ok := w.(flusher); ok {
			f.Flush()
		}
	}
}

type flusher interface {
	Flush()
}

func writePart(w io.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
