package annotate

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"riceguard/detector"
)

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderDrawsBoxes(t *testing.T) {
	r := NewRenderer()
	boxes := []detector.Box{
		{ClassID: 5, Confidence: 0.91, X1: 10, Y1: 10, X2: 60, Y2: 50},
	}
	names := map[int]string{5: "rice_blast"}

	out, err := r.Render(testImage(t, 100, 80), boxes, names)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 100, img.Bounds().Dx())
	require.Equal(t, 80, img.Bounds().Dy())

	// The stroke color should appear on the box edge while untouched
	// background pixels keep their original color.
	require.NotEqual(t, img.At(90, 70), img.At(10, 30),
		"box edge pixel should no longer be the background color")
}

func TestRenderSkipsDegenerateBoxes(t *testing.T) {
	r := NewRenderer()
	boxes := []detector.Box{
		{ClassID: 1, Confidence: 0.5, X1: 50, Y1: 50, X2: 50, Y2: 50},
	}

	out, err := r.Render(testImage(t, 64, 64), boxes, map[int]string{1: "blight"})
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestRenderRejectsInvalidImage(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render([]byte("not an image"), nil, nil)
	require.Error(t, err)
}
