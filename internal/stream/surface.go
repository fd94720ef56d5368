package stream

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Surface is where interactive frames land. PollKey returns the key pressed
// since the last Show, or 0 when none. Implementations are used from a
// single goroutine.
type Surface interface {
	Show(frame image.Image) error
	PollKey() rune
	Close() error
}

// Window shows frames in a native OpenCV window. Key presses are captured
// by the WaitKey pump inside Show, so PollKey reports the key seen while
// the last frame was displayed.
type Window struct {
	win     *gocv.Window
	lastKey rune
}

// NewWindow opens a named window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame image.Image) error {
	rgba, err := gocv.ImageToMatRGBA(frame)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	w.win.IMShow(bgr)
	w.lastKey = 0
	if key := w.win.WaitKey(1); key > 0 {
		w.lastKey = rune(key)
	}
	return nil
}

func (w *Window) PollKey() rune {
	key := w.lastKey
	w.lastKey = 0
	return key
}

func (w *Window) Close() error {
	return w.win.Close()
}
