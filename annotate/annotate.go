package annotate

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/fogleman/gg"

	"riceguard/detector"
)

// Renderer draws detection boxes and class labels onto an image. It is
// the local fallback used when the detector sidecar does not return its
// own annotated rendering.
type Renderer struct {
	LineWidth float64
}

// NewRenderer creates a renderer with default stroke settings.
func NewRenderer() *Renderer {
	return &Renderer{LineWidth: 3}
}

// Render decodes imageData, draws every box with its class label and
// confidence, and returns the result as PNG bytes.
func (r *Renderer) Render(imageData []byte, boxes []detector.Box, names map[int]string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dc := gg.NewContextForImage(img)

	for _, box := range boxes {
		w := box.X2 - box.X1
		h := box.Y2 - box.Y1
		if w <= 0 || h <= 0 {
			continue
		}

		dc.SetRGBA255(255, 87, 34, 255)
		dc.SetLineWidth(r.LineWidth)
		dc.DrawRectangle(box.X1, box.Y1, w, h)
		dc.Stroke()

		label := fmt.Sprintf("%s %.2f", names[box.ClassID], box.Confidence)
		dc.SetRGBA255(255, 255, 255, 255)
		dc.DrawStringAnchored(label, box.X1+4, box.Y1+4, 0, 1)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return buf.Bytes(), nil
}
