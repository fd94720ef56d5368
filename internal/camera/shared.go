package camera

import (
	"errors"
	"image"
	"sync"
)

// Shared is a refcounted camera handle for concurrent stream consumers.
// The mutex guards only the physical read, never the downstream compute, so
// consumers serialize on the hardware and nothing else. The device opens on
// the first Acquire and closes when the last holder releases.
type Shared struct {
	open func() (Device, error)

	mu       sync.Mutex // guards device reads and the refcount
	device   Device
	refcount int
}

// NewShared wraps a device factory; open is called lazily on first Acquire.
func NewShared(open func() (Device, error)) *Shared {
	return &Shared{open: open}
}

// Acquire registers a consumer, opening the device if this is the first one.
func (s *Shared) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refcount == 0 {
		dev, err := s.open()
		if err != nil {
			return err
		}
		s.device = dev
	}
	s.refcount++
	return nil
}

// Release drops a consumer; the device closes when the count reaches zero.
func (s *Shared) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refcount == 0 {
		return errors.New("release without acquire")
	}
	s.refcount--
	if s.refcount > 0 {
		return nil
	}

	dev := s.device
	s.device = nil
	return dev.Close()
}

// Read pulls one frame under the read lock. Callers must hold an Acquire;
// reading without one returns an error instead of touching a nil device.
func (s *Shared) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return nil, errors.New("read without acquire")
	}
	return s.device.Read()
}

// Holders returns the current consumer count.
func (s *Shared) Holders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refcount
}
