// Package camera owns the capture device: opening with index fallback, a
// refcounted shared handle whose read is the only critical section, and a
// scripted fake for tests.
package camera

import (
	"errors"
	"fmt"
	"image"
)

// ErrCameraUnavailable means no device opened across the fallback index list.
var ErrCameraUnavailable = errors.New("no camera device available")

// ReadError reports a failed frame read on an opened device. A stream
// consumer hitting it terminates its own loop; other consumers are
// unaffected.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("camera read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Device is a single capture device. Read blocks for the next frame.
// Implementations are not safe for concurrent reads; wrap in Shared when
// multiple consumers pull from one device.
type Device interface {
	Read() (image.Image, error)
	Close() error
}

// Opener opens the device at the given index. Injected so tests and the
// gocv-backed build share the fallback logic.
type Opener func(index, width, height int) (Device, error)

// Open tries each index in order and returns the first device that opens.
// Returns ErrCameraUnavailable when the whole list fails.
func Open(open Opener, indices []int, width, height int) (Device, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty index list", ErrCameraUnavailable)
	}
	var lastErr error
	for _, idx := range indices {
		dev, err := open(idx, width, height)
		if err == nil {
			return dev, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: tried indices %v: %v", ErrCameraUnavailable, indices, lastErr)
}
