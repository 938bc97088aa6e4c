package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"

	"roomcheck/internal/config"
)

// ErrDecode reports input that is not a decodable image. Callers keep the
// entry and drop the photo.
var ErrDecode = errors.New("imaging: cannot decode image")

const dataURLPrefix = "data:image/jpeg;base64,"

// Photo is a JPEG payload plus its pixel dimensions.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// Empty reports whether the photo carries no payload.
func (p Photo) Empty() bool { return len(p.Data) == 0 }

// DataURL renders the payload the way records store it.
func (p Photo) DataURL() string {
	if p.Empty() {
		return ""
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(p.Data)
}

// ParseDataURL decodes a stored photo. Any base64 image data URL is accepted;
// the dimensions are read from the image header.
func ParseDataURL(value string) (Photo, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Photo{}, nil
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return Photo{}, fmt.Errorf("%w: not an image data url", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Photo{Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// Options controls compression and marker rendering.
type Options struct {
	MaxWidth        int
	Quality         int
	AnnotateQuality int
	MarkerRadius    float64
	MarkerStroke    float64
	MarkerColor     color.RGBA
	// MaxPixels caps width*height of an input before it is decoded.
	MaxPixels int
}

// DefaultOptions mirrors the shipped configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxWidth:        800,
		Quality:         60,
		AnnotateQuality: 70,
		MarkerRadius:    50,
		MarkerStroke:    8,
		MarkerColor:     color.RGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
		MaxPixels:       50_000_000,
	}
}

// OptionsFromConfig converts the [imaging] section.
func OptionsFromConfig(cfg config.Imaging) (Options, error) {
	markerColor, err := parseHexColor(cfg.MarkerColor)
	if err != nil {
		return Options{}, err
	}
	return Options{
		MaxWidth:        cfg.MaxWidth,
		Quality:         cfg.Quality,
		AnnotateQuality: cfg.AnnotateQuality,
		MarkerRadius:    float64(cfg.MarkerRadius),
		MarkerStroke:    float64(cfg.MarkerStroke),
		MarkerColor:     markerColor,
		MaxPixels:       cfg.MaxPixels,
	}, nil
}

// Codec compresses captures and stamps markers onto them. It holds no mutable
// state and is safe for concurrent use.
type Codec struct {
	opts Options
}

// NewCodec builds a codec, substituting defaults for unset fields.
func NewCodec(opts Options) *Codec {
	def := DefaultOptions()
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.Quality <= 0 {
		opts.Quality = def.Quality
	}
	if opts.AnnotateQuality <= 0 {
		opts.AnnotateQuality = def.AnnotateQuality
	}
	if opts.MarkerRadius <= 0 {
		opts.MarkerRadius = def.MarkerRadius
	}
	if opts.MarkerStroke <= 0 {
		opts.MarkerStroke = def.MarkerStroke
	}
	if opts.MarkerColor == (color.RGBA{}) {
		opts.MarkerColor = def.MarkerColor
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = def.MaxPixels
	}
	return &Codec{opts: opts}
}

// Options returns the effective codec settings.
func (c *Codec) Options() Options { return c.opts }

// Compress decodes a raw capture, scales it down to the configured maximum
// width and re-encodes it as JPEG. Narrower images keep their size.
func (c *Codec) Compress(raw []byte) (Photo, error) {
	src, err := c.decode(raw)
	if err != nil {
		return Photo{}, err
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return Photo{}, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if width > c.opts.MaxWidth {
		height = int(math.Round(float64(height) * float64(c.opts.MaxWidth) / float64(width)))
		if height < 1 {
			height = 1
		}
		width = c.opts.MaxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha; flatten transparent captures onto white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	return encode(dst, c.opts.Quality)
}

// Annotate draws a ring centred on at, given in the photo's own pixel space,
// and returns a new payload. The input is never modified; passing the result
// back in stacks a further marker on top.
func (c *Codec) Annotate(photo Photo, at Point) (Photo, error) {
	if photo.Empty() {
		return Photo{}, fmt.Errorf("%w: no photo to annotate", ErrDecode)
	}
	src, err := c.decode(photo.Data)
	if err != nil {
		return Photo{}, err
	}
	bounds := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Src)

	c.drawRing(canvas, at)
	return encode(canvas, c.opts.AnnotateQuality)
}

// decode reads the header first so oversized captures are refused before any
// pixel buffer is allocated.
func (c *Codec) decode(raw []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(c.opts.MaxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", ErrDecode, cfg.Width, cfg.Height, c.opts.MaxPixels)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return src, nil
}

func (c *Codec) drawRing(dst *image.RGBA, at Point) {
	size := dst.Bounds().Size()
	r := vector.NewRasterizer(size.X, size.Y)
	half := c.opts.MarkerStroke / 2
	cx, cy := float32(at.X), float32(at.Y)
	// Opposite windings cancel inside the inner circle, leaving the band.
	circlePath(r, cx, cy, float32(c.opts.MarkerRadius+half), false)
	if inner := c.opts.MarkerRadius - half; inner > 0 {
		circlePath(r, cx, cy, float32(inner), true)
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(c.opts.MarkerColor), image.Point{})
}

// kappa places cubic control points so four segments approximate a circle.
const kappa = 0.5522847498

func circlePath(r *vector.Rasterizer, cx, cy, radius float32, reverse bool) {
	k := radius * kappa
	r.MoveTo(cx+radius, cy)
	if !reverse {
		r.CubeTo(cx+radius, cy+k, cx+k, cy+radius, cx, cy+radius)
		r.CubeTo(cx-k, cy+radius, cx-radius, cy+k, cx-radius, cy)
		r.CubeTo(cx-radius, cy-k, cx-k, cy-radius, cx, cy-radius)
		r.CubeTo(cx+k, cy-radius, cx+radius, cy-k, cx+radius, cy)
	} else {
		r.CubeTo(cx+radius, cy-k, cx+k, cy-radius, cx, cy-radius)
		r.CubeTo(cx-k, cy-radius, cx-radius, cy-k, cx-radius, cy)
		r.CubeTo(cx-radius, cy+k, cx-k, cy+radius, cx, cy+radius)
		r.CubeTo(cx+k, cy+radius, cx+radius, cy+k, cx+radius, cy)
	}
	r.ClosePath()
}

func encode(img image.Image, quality int) (Photo, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return Photo{}, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return Photo{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func parseHexColor(value string) (color.RGBA, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) != 6 {
		return color.RGBA{}, fmt.Errorf("marker color %q: want #RRGGBB", value)
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("marker color %q: %w", value, err)
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xFF}, nil
}
