package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"riceguard/models"
)

func sampleDetection() *models.DetectionResult {
	return &models.DetectionResult{
		ID:          3,
		Disease:     "Rice Blast",
		Confidence:  91.25,
		Severity:    "Moderate",
		LesionCount: 4,
		Description: "Rice Blast detected with Moderate severity.",
		Symptoms:    []string{"Spindle shaped lesions on leaves"},
		Treatment:   []string{"Apply Tricyclazole as per label rate"},
		Prevention:  []string{"Use resistant varieties"},
		Timestamp:   "2026-08-24T10:00:00Z",
	}
}

func TestGeneratePDF(t *testing.T) {
	data, err := GeneratePDF(sampleDetection(), "", "")
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output should be a PDF document")
}

func TestGeneratePDFSkipsMissingImages(t *testing.T) {
	data, err := GeneratePDF(sampleDetection(), "/nonexistent/a.jpg", "/nonexistent/b.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, data)
}
