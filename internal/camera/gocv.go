package camera

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// webcam wraps a gocv capture device. Frames are mirrored horizontally so
// the preview behaves like a mirror, matching what people expect to see.
type webcam struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	flipped gocv.Mat
}

// OpenWebcam opens the V4L2/OpenCV device at index. Satisfies Opener.
func OpenWebcam(index, width, height int) (Device, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %d did not open", index)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	capture.Set(gocv.VideoCaptureFPS, 30)

	return &webcam{
		capture: capture,
		mat:     gocv.NewMat(),
		flipped: gocv.NewMat(),
	}, nil
}

// Read grabs the next frame, mirrors it and converts to image.Image.
func (w *webcam) Read() (image.Image, error) {
	if ok := w.capture.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, &ReadError{Err: fmt.Errorf("device returned no frame")}
	}

	gocv.Flip(w.mat, &w.flipped, 1)

	img, err := w.flipped.ToImage()
	if err != nil {
		return nil, &ReadError{Err: fmt.Errorf("converting frame: %w", err)}
	}
	return img, nil
}

// Close releases the device and frame buffers.
func (w *webcam) Close() error {
	w.mat.Close()
	w.flipped.Close()
	if err := w.capture.Close(); err != nil {
		return fmt.Errorf("closing camera: %w", err)
	}
	return nil
}
