package imaging

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// exifSegment builds a little-endian APP1 segment with an Orientation tag
// in IFD0 and DateTimeOriginal in the Exif sub-IFD.
func exifSegment(dateTimeOriginal string, orientation uint16) []byte {
	le := binary.LittleEndian
	tiff := new(bytes.Buffer)
	u16 := func(v uint16) { _ = binary.Write(tiff, le, v) }
	u32 := func(v uint32) { _ = binary.Write(tiff, le, v) }

	const (
		ifd0Offset = 8
		ifd0Size   = 2 + 2*12 + 4
		exifOffset = ifd0Offset + ifd0Size
		exifSize   = 2 + 12 + 4
		strOffset  = exifOffset + exifSize
	)
	value := append([]byte(dateTimeOriginal), 0)

	tiff.WriteString("II")
	u16(42)
	u32(ifd0Offset)

	u16(2)
	u16(0x0112) // Orientation
	u16(3)      // SHORT
	u32(1)
	u16(orientation)
	u16(0)
	u16(0x8769) // ExifIFDPointer
	u16(4)      // LONG
	u32(1)
	u32(exifOffset)
	u32(0)

	u16(1)
	u16(0x9003) // DateTimeOriginal
	u16(2)      // ASCII
	u32(uint32(len(value)))
	u32(strOffset)
	u32(0)

	tiff.Write(value)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

func withExif(jpegData, segment []byte) []byte {
	out := append([]byte{}, jpegData[:2]...) // SOI
	out = append(out, segment...)
	return append(out, jpegData[2:]...)
}

func TestCaptureDate_RoundTrip(t *testing.T) {
	data := withExif(encodeJPEG(t, solidImage(8, 8)), exifSegment("2021:06:15 10:30:00", 1))

	got := CaptureDate(data)

	require.NotNil(t, got)
	assert.True(t, time.Date(2021, 6, 15, 10, 30, 0, 0, time.UTC).Equal(*got))
}

func TestCaptureDate_Absent(t *testing.T) {
	assert.Nil(t, CaptureDate(encodeJPEG(t, solidImage(4, 4))))
	assert.Nil(t, CaptureDate([]byte("not an image")))
}

func TestProcess_StripsMetadataAndKeepsDate(t *testing.T) {
	data := withExif(encodeJPEG(t, solidImage(8, 8)), exifSegment("2020:01:02 03:04:05", 1))

	res, err := Process(data, 0)
	require.NoError(t, err)

	require.NotNil(t, res.CaptureDate)
	assert.Equal(t, "2020-01-02T03:04:05Z", res.CaptureDate.Format(time.RFC3339))
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, ".jpg", res.Ext)
	assert.False(t, bytes.Contains(res.Data, []byte("Exif\x00\x00")))
	assert.Nil(t, CaptureDate(res.Data))
}

func TestProcess_AppliesOrientation(t *testing.T) {
	data := withExif(encodeJPEG(t, solidImage(16, 8)), exifSegment("2020:01:02 03:04:05", 6))

	res, err := Process(data, 0)
	require.NoError(t, err)

	assert.Equal(t, 8, res.Width)
	assert.Equal(t, 16, res.Height)
}

func TestProcess_Downscales(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(400, 100)))

	res, err := Process(buf.Bytes(), 200)
	require.NoError(t, err)

	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Nil(t, res.CaptureDate)

	decoded, _, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
}

func TestProcess_RejectsNonImages(t *testing.T) {
	_, err := Process([]byte("hello, plain text"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Process([]byte("\xFF\xD8\xFFgarbage-after-jpeg-magic"), 0)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestOrient(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	rotated := orient(src, 6)
	assert.Equal(t, image.Rect(0, 0, 1, 2), rotated.Bounds())
	assert.Equal(t, red, rotated.At(0, 0))
	assert.Equal(t, blue, rotated.At(0, 1))

	flipped := orient(src, 2)
	assert.Equal(t, blue, flipped.At(0, 0))

	assert.Same(t, src, orient(src, 1))
}
