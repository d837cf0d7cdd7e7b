package inference

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"riceguard/detector"
	"riceguard/models"
)

// healthyConfidence is the fixed sentinel reported for an empty
// detection. It is not derived from any model score.
const healthyConfidence = 99.0

// HistorySink receives resolved results, newest first. Appends are
// best-effort: a sink failure never fails the resolution.
type HistorySink interface {
	Append(result models.DetectionResult) error
}

// Annotator draws detection boxes on an image. Used only when the
// detector sidecar does not return its own rendering.
type Annotator interface {
	Render(imageData []byte, boxes []detector.Box, names map[int]string) ([]byte, error)
}

// Resolver reduces a raw detection to a canonical DetectionResult:
// disease label, confidence, lesion-count-driven severity and the
// guidance payload looked up from the knowledge base.
type Resolver struct {
	uploadsDir string
	history    HistorySink
	annotator  Annotator
	now        func() time.Time
}

// NewResolver creates a resolver writing annotated images under
// uploadsDir/results. history and annotator may be nil.
func NewResolver(uploadsDir string, history HistorySink, annotator Annotator) *Resolver {
	return &Resolver{
		uploadsDir: uploadsDir,
		history:    history,
		annotator:  annotator,
		now:        time.Now,
	}
}

// Resolve turns the raw detection for one uploaded image into a
// DetectionResult. It fails only when the annotated image cannot be
// produced or written; knowledge-base misses degrade to the fallback
// payload and a history-append failure is logged but swallowed.
func (r *Resolver) Resolve(det *detector.Detection, filename string, imageData []byte) (*models.DetectionResult, error) {
	originalRef := "/uploads/" + filename

	var result *models.DetectionResult
	if len(det.Boxes) == 0 {
		result = r.resolveHealthy(originalRef)
	} else {
		resolved, err := r.resolveDiseased(det, filename, originalRef, imageData)
		if err != nil {
			return nil, err
		}
		result = resolved
	}

	result.Timestamp = r.now().Format(time.RFC3339)

	if r.history != nil {
		if err := r.history.Append(*result); err != nil {
			log.WithError(err).Warn("Failed to append detection to history log")
		}
	}

	return result, nil
}

// resolveHealthy emits the canonical Healthy result. No annotation is
// needed, so the result image reference reuses the original.
func (r *Resolver) resolveHealthy(originalRef string) *models.DetectionResult {
	guidance := Lookup(HealthyDisease, SeverityNone)
	return &models.DetectionResult{
		Disease:       HealthyDisease,
		Confidence:    healthyConfidence,
		Severity:      string(SeverityNone),
		LesionCount:   0,
		Description:   fmt.Sprintf("%s detected with %s severity.", HealthyDisease, SeverityNone),
		Symptoms:      []string{},
		Treatment:     []string{},
		Prevention:    guidance.Prevention,
		OriginalImage: originalRef,
		ResultImage:   originalRef,
	}
}

func (r *Resolver) resolveDiseased(det *detector.Detection, filename, originalRef string, imageData []byte) (*models.DetectionResult, error) {
	// Every box counts toward severity, including ones below any
	// display threshold.
	lesionCount := len(det.Boxes)

	best := bestBoxIndex(det.Boxes)
	bestBox := det.Boxes[best]

	name, ok := det.Names[bestBox.ClassID]
	if !ok {
		log.Warnf("Class id %d has no entry in the model name table", bestBox.ClassID)
		name = fmt.Sprintf("class %d", bestBox.ClassID)
	}
	disease := NormalizeDisease(name)

	severity := SeverityForCount(lesionCount)
	guidance := Lookup(disease, severity)
	if tiers, known := knowledgeBase[disease]; !known {
		log.Warnf("Disease %q has no knowledge-base entry, using fallback guidance", disease)
	} else if _, known := tiers[severity]; !known {
		log.Warnf("Disease %q has no %s tier, using fallback guidance", disease, severity)
	}

	resultRef, err := r.writeAnnotated(det, filename, imageData)
	if err != nil {
		return nil, err
	}

	return &models.DetectionResult{
		Disease:       disease,
		Confidence:    round2(bestBox.Confidence * 100),
		Severity:      string(severity),
		LesionCount:   lesionCount,
		Description:   fmt.Sprintf("%s detected with %s severity.", disease, severity),
		Symptoms:      guidance.Symptoms,
		Treatment:     guidance.Treatment,
		Prevention:    guidance.Prevention,
		OriginalImage: originalRef,
		ResultImage:   resultRef,
	}, nil
}

// writeAnnotated stores the visualization of all detected boxes under
// uploads/results and returns its reference path. The sidecar rendering
// is preferred; the local annotator is the fallback.
func (r *Resolver) writeAnnotated(det *detector.Detection, filename string, imageData []byte) (string, error) {
	annotated := det.Annotated
	if len(annotated) == 0 {
		if r.annotator == nil {
			return "", fmt.Errorf("no annotated image available for %s", filename)
		}
		rendered, err := r.annotator.Render(imageData, det.Boxes, det.Names)
		if err != nil {
			return "", fmt.Errorf("failed to render annotated image: %w", err)
		}
		annotated = rendered
	}

	resultDir := filepath.Join(r.uploadsDir, "results")
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	resultName := "result_" + filename
	if err := os.WriteFile(filepath.Join(resultDir, resultName), annotated, 0o644); err != nil {
		return "", fmt.Errorf("failed to write annotated image: %w", err)
	}

	return "/uploads/results/" + resultName, nil
}

// bestBoxIndex returns the index of the highest-confidence box. Ties
// resolve to the first occurrence, keeping resolution deterministic.
func bestBoxIndex(boxes []detector.Box) int {
	best := 0
	for i, b := range boxes {
		if b.Confidence > boxes[best].Confidence {
			best = i
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
