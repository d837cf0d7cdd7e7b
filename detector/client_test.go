package detector

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, 0.25, 0.45, 640)
}

func TestDetectParsesSidecarResponse(t *testing.T) {
	annotated := []byte("annotated-png")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "leaf.jpg", req["filename"])
		require.Equal(t, 0.25, req["conf_threshold"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "completed",
			"boxes": []map[string]interface{}{
				{"class_id": 5, "confidence": 0.91, "x1": 10, "y1": 20, "x2": 110, "y2": 220},
				{"class_id": 5, "confidence": 0.40, "x1": 5, "y1": 5, "x2": 50, "y2": 60},
			},
			"names":           map[string]string{"5": "rice_blast"},
			"annotated_image": base64.StdEncoding.EncodeToString(annotated),
		})
	}))
	defer srv.Close()

	det, err := newTestClient(srv.URL).Detect(context.Background(), []byte("img"), "leaf.jpg")
	require.NoError(t, err)
	require.Len(t, det.Boxes, 2)
	require.Equal(t, 5, det.Boxes[0].ClassID)
	require.Equal(t, 0.91, det.Boxes[0].Confidence)
	require.Equal(t, "rice_blast", det.Names[5])
	require.Equal(t, annotated, det.Annotated)
}

func TestDetectEmptyDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "completed",
			"boxes":  []interface{}{},
			"names":  map[string]string{"0": "Blight"},
		})
	}))
	defer srv.Close()

	det, err := newTestClient(srv.URL).Detect(context.Background(), []byte("img"), "leaf.jpg")
	require.NoError(t, err)
	require.Empty(t, det.Boxes)
	require.Empty(t, det.Annotated)
}

func TestDetectNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Detect(context.Background(), []byte("img"), "leaf.jpg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 503")
}

func TestDetectFailedStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "failed"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Detect(context.Background(), []byte("img"), "leaf.jpg")
	require.Error(t, err)
}

func TestEnsureReadyCachesOutcome(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	require.NoError(t, c.EnsureReady(context.Background()))
	require.NoError(t, c.EnsureReady(context.Background()))
	require.Equal(t, 1, calls)
}
