package imaging

import "errors"

// ErrNotLoaded is returned while either the rendered or the native size of a
// photo is still unknown. Annotation must wait until both are available.
var ErrNotLoaded = errors.New("imaging: image dimensions not available")

// Point is a position in pixels.
type Point struct {
	X float64
	Y float64
}

// Size is a width and height in pixels. The zero value means unknown.
type Size struct {
	W float64
	H float64
}

func (s Size) known() bool { return s.W > 0 && s.H > 0 }

// MapClick converts a click relative to the top-left corner of the rendered
// image into native pixel coordinates. Horizontal and vertical scales are
// applied independently.
func MapClick(display Size, click Point, native Size) (Point, error) {
	if !display.known() || !native.known() {
		return Point{}, ErrNotLoaded
	}
	return Point{
		X: click.X * native.W / display.W,
		Y: click.Y * native.H / display.H,
	}, nil
}

// Unmap is the inverse of MapClick.
func Unmap(display Size, p Point, native Size) (Point, error) {
	if !display.known() || !native.known() {
		return Point{}, ErrNotLoaded
	}
	return Point{
		X: p.X * display.W / native.W,
		Y: p.Y * display.H / native.H,
	}, nil
}

// MapUniform handles a display box that is itself scaled from a fixed
// reference width, so only one factor is known.
func MapUniform(click Point, renderedWidth, referenceWidth float64) (Point, error) {
	if renderedWidth <= 0 || referenceWidth <= 0 {
		return Point{}, ErrNotLoaded
	}
	scale := referenceWidth / renderedWidth
	return Point{X: click.X * scale, Y: click.Y * scale}, nil
}
