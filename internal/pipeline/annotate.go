package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	identifiedColor = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	unknownColor    = color.RGBA{R: 220, G: 0, B: 0, A: 255}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const boxThickness = 2

// Annotate draws boxes and identity labels onto a copy of the frame. Green
// for identified faces with name, confidence and roll number lines; red with
// an "Unknown" label otherwise.
func Annotate(frame image.Image, detections []Detection) *image.RGBA {
	out := image.NewRGBA(frame.Bounds())
	draw.Draw(out, out.Bounds(), frame, frame.Bounds().Min, draw.Src)

	for _, d := range detections {
		c := unknownColor
		lines := []string{"Unknown"}
		if d.Result.Known && d.Person != nil {
			c = identifiedColor
			lines = []string{
				fmt.Sprintf("%s (%s)", d.Person.Name, d.Person.ClassName),
				fmt.Sprintf("Confidence: %.2f", d.Result.Confidence),
				fmt.Sprintf("Roll: %s", d.Person.RollNumber),
			}
		}

		drawRect(out, d.Box, c)
		for i, line := range lines {
			DrawLabel(out, line, d.Box.Min.X+boxThickness, d.Box.Max.Y+14+i*14, c)
		}
	}
	return out
}

// drawRect strokes a rectangle outline clipped to the image bounds.
func drawRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for t := range boxThickness {
		top := image.Rect(r.Min.X, r.Min.Y+t, r.Max.X, r.Min.Y+t+1)
		bottom := image.Rect(r.Min.X, r.Max.Y-t-1, r.Max.X, r.Max.Y-t)
		left := image.Rect(r.Min.X+t, r.Min.Y, r.Min.X+t+1, r.Max.Y)
		right := image.Rect(r.Max.X-t-1, r.Min.Y, r.Max.X-t, r.Max.Y)

		for _, side := range []image.Rectangle{top, bottom, left, right} {
			draw.Draw(img, side.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}
}

// DrawLabel renders one line of text with a solid background strip so it
// stays readable over any frame content. (x, y) is the text baseline.
func DrawLabel(img *image.RGBA, text string, x, y int, bg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()

	strip := image.Rect(x-1, y-face.Ascent, x+width+1, y+face.Descent)
	draw.Draw(img, strip.Intersect(img.Bounds()), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: textColor},
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
