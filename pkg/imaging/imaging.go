// Package imaging normalizes uploaded images: it reads the capture time
// from EXIF, applies the EXIF orientation, bounds the dimensions and
// re-encodes the pixels so no source metadata survives.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register the GIF decoder
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register the WebP decoder
)

const exifTimeLayout = "2006:01:02 15:04:05"

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidImage    = errors.New("invalid image data")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Result struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
	// CaptureDate is the EXIF DateTimeOriginal, nil when absent.
	CaptureDate *time.Time
}

// DetectType sniffs the content type and reports whether it is accepted.
func DetectType(data []byte) (string, bool) {
	ct := http.DetectContentType(data)
	return ct, allowedTypes[ct]
}

// Process decodes data, applies orientation, downscales so neither side
// exceeds maxDim (0 disables) and re-encodes without metadata.
func Process(data []byte, maxDim int) (*Result, error) {
	contentType, ok := DetectType(data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	res := &Result{}
	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		res.CaptureDate = captureDate(x)
		img = orient(img, orientation(x))
	}

	img = resizeToFit(img, maxDim)

	var buf bytes.Buffer
	switch format {
	case "png", "gif":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		res.ContentType, res.Ext = "image/png", ".png"
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		res.ContentType, res.Ext = "image/jpeg", ".jpg"
	}

	b := img.Bounds()
	res.Data = buf.Bytes()
	res.Width, res.Height = b.Dx(), b.Dy()
	return res, nil
}

// CaptureDate extracts DateTimeOriginal (or DateTime) from EXIF data. EXIF
// stores wall-clock time without a zone; it is interpreted as UTC.
func CaptureDate(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return captureDate(x)
}

func captureDate(x *exif.Exif) *time.Time {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		if tag, err = x.Get(exif.DateTime); err != nil {
			return nil
		}
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	t, err := time.Parse(exifTimeLayout, strings.TrimSpace(strings.TrimRight(s, "\x00")))
	if err != nil {
		return nil
	}
	return &t
}

func orientation(x *exif.Exif) int {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// orient returns img as it should be displayed for EXIF orientation o.
func orient(img image.Image, o int) image.Image {
	if o < 2 || o > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}

	var src func(dx, dy int) (int, int)
	switch o {
	case 2:
		src = func(dx, dy int) (int, int) { return w - 1 - dx, dy }
	case 3:
		src = func(dx, dy int) (int, int) { return w - 1 - dx, h - 1 - dy }
	case 4:
		src = func(dx, dy int) (int, int) { return dx, h - 1 - dy }
	case 5:
		src = func(dx, dy int) (int, int) { return dy, dx }
	case 6:
		src = func(dx, dy int) (int, int) { return dy, h - 1 - dx }
	case 7:
		src = func(dx, dy int) (int, int) { return w - 1 - dy, h - 1 - dx }
	case 8:
		src = func(dx, dy int) (int, int) { return w - 1 - dy, dx }
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for dy := 0; dy < dh; dy++ {
		for dx := 0; dx < dw; dx++ {
			sx, sy := src(dx, dy)
			dst.Set(dx, dy, img.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}

func resizeToFit(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || w <= 0 || h <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = h * maxDim / w
	} else {
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
