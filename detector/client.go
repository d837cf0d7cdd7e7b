package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
)

// Box is a single detected region. ClassID indexes into the class-name
// table owned by the model artifact; Confidence is in [0,1].
type Box struct {
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// Detection is the raw model output for one image.
type Detection struct {
	Boxes []Box
	// Names maps class ids to class names, as embedded in the model artifact.
	Names map[int]string
	// Annotated is the sidecar's rendering of the image with all boxes
	// drawn. May be empty, in which case the caller draws its own.
	Annotated []byte
}

// Client talks to the YOLO inference sidecar over HTTP. The sidecar owns
// the model weights and loads them on its first request; the client is
// stateless and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	confThreshold float64
	iouThreshold  float64
	inputSize     int

	readyOnce sync.Once
	readyErr  error
}

type detectRequest struct {
	Image         string  `json:"image"`
	Filename      string  `json:"filename"`
	ConfThreshold float64 `json:"conf_threshold"`
	IoUThreshold  float64 `json:"iou_threshold"`
	InputSize     int     `json:"input_size"`
}

type detectResponse struct {
	Status    string         `json:"status"`
	Boxes     []Box          `json:"boxes"`
	Names     map[int]string `json:"names"`
	Annotated string         `json:"annotated_image"`
}

// NewClient creates a new detector client
func NewClient(baseURL string, timeout time.Duration, confThreshold, iouThreshold float64, inputSize int) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		confThreshold: confThreshold,
		iouThreshold:  iouThreshold,
		inputSize:     inputSize,
	}
}

// EnsureReady pings the sidecar health endpoint once per process so the
// model weights are loaded before the first real request. Later calls
// return the cached outcome.
func (c *Client) EnsureReady(ctx context.Context) error {
	c.readyOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			c.readyErr = err
			return
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.readyErr = fmt.Errorf("detector sidecar not reachable: %w", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			c.readyErr = fmt.Errorf("detector sidecar health returned status %d", resp.StatusCode)
		}
	})
	return c.readyErr
}

// Detect sends an image to the sidecar and returns the raw detection.
func (c *Client) Detect(ctx context.Context, imageData []byte, filename string) (*Detection, error) {
	body, err := json.Marshal(detectRequest{
		Image:         base64.StdEncoding.EncodeToString(imageData),
		Filename:      filename,
		ConfThreshold: c.confThreshold,
		IoUThreshold:  c.iouThreshold,
		InputSize:     c.inputSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Infof("Sending image to detector sidecar: %s, image size: %d bytes", filename, len(imageData))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call detector sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector sidecar returned status %d", resp.StatusCode)
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode detector response: %w", err)
	}
	if dr.Status != "" && dr.Status != "completed" {
		return nil, fmt.Errorf("detector sidecar returned status: %s", dr.Status)
	}

	det := &Detection{
		Boxes: dr.Boxes,
		Names: dr.Names,
	}
	if dr.Annotated != "" {
		annotated, err := base64.StdEncoding.DecodeString(dr.Annotated)
		if err != nil {
			return nil, fmt.Errorf("failed to decode annotated image: %w", err)
		}
		det.Annotated = annotated
	}

	log.Infof("Detection finished for %s: %d boxes", filename, len(det.Boxes))
	return det, nil
}
