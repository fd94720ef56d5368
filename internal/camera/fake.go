package camera

import (
	"errors"
	"image"
	"sync"
)

var errDeviceGone = errors.New("device gone")

// Fake is a scripted camera device for tests: it serves the given frames in
// order, then keeps repeating the last one. FailAfter > 0 makes the read at
// that position (1-based) and all later reads fail.
type Fake struct {
	Frames    []image.Image
	FailAfter int

	mu     sync.Mutex
	reads  int
	closed bool
}

// NewFake builds a fake serving count copies of a blank 64x48 frame.
func NewFake(count int) *Fake {
	frames := make([]image.Image, count)
	for i := range frames {
		frames[i] = image.NewRGBA(image.Rect(0, 0, 64, 48))
	}
	return &Fake{Frames: frames}
}

func (f *Fake) Read() (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.FailAfter > 0 && f.reads >= f.FailAfter {
		return nil, &ReadError{Err: errDeviceGone}
	}
	if len(f.Frames) == 0 {
		return nil, &ReadError{Err: errDeviceGone}
	}
	idx := f.reads - 1
	if idx >= len(f.Frames) {
		idx = len(f.Frames) - 1
	}
	return f.Frames[idx], nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Reads returns how many times Read was called.
func (f *Fake) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
