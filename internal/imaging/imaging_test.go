package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255})))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestProcessKeepsSmallImages(t *testing.T) {
	got, err := Process(bytes.NewReader(encodeJPEG(t, 100, 80)), Options{})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", got.MIME)
	assert.Equal(t, 100, got.Width)
	assert.Equal(t, 80, got.Height)
	assert.NotEmpty(t, got.Data)
}

func TestProcessConvertsPNG(t *testing.T) {
	got, err := Process(bytes.NewReader(encodePNG(t, 50, 50)), Options{})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", got.MIME)
	_, format, err := image.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestProcessDownscales(t *testing.T) {
	got, err := Process(bytes.NewReader(encodePNG(t, 2000, 500)), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxDimension, got.Width)
	assert.Equal(t, 256, got.Height)

	tall, err := Process(bytes.NewReader(encodeJPEG(t, 300, 600)), Options{MaxDimension: 200})
	require.NoError(t, err)
	assert.Equal(t, 100, tall.Width)
	assert.Equal(t, 200, tall.Height)
}

func TestProcessRejectsOtherFormats(t *testing.T) {
	_, err := Process(strings.NewReader("GIF89a not really"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Process(strings.NewReader("just text"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}
