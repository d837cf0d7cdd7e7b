package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"riceguard/chatbot"
	"riceguard/database"
	"riceguard/detector"
	"riceguard/email"
	"riceguard/inference"
	"riceguard/metrics"
	"riceguard/models"
	"riceguard/report"
)

// Detector is the upstream model invocation consumed by the detect
// endpoint.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, filename string) (*detector.Detection, error)
}

// EventPublisher pushes resolved detections to the message broker.
type EventPublisher interface {
	Publish(message interface{}) error
}

// Handlers holds all HTTP handlers
type Handlers struct {
	db         *database.Service
	resolver   *inference.Resolver
	detector   Detector
	bot        *chatbot.Bot
	sender     *email.Sender
	publisher  EventPublisher
	uploadsDir string
}

// NewHandlers creates a new handlers instance. sender and publisher may
// be nil when the corresponding integration is not configured.
func NewHandlers(db *database.Service, resolver *inference.Resolver, det Detector,
	bot *chatbot.Bot, sender *email.Sender, publisher EventPublisher, uploadsDir string) *Handlers {
	return &Handlers{
		db:         db,
		resolver:   resolver,
		detector:   det,
		bot:        bot,
		sender:     sender,
		publisher:  publisher,
		uploadsDir: uploadsDir,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "riceguard",
	})
}

// Detect accepts an uploaded rice-leaf image, runs detection and
// returns the resolved DetectionResult. Detector or annotation failures
// fail the request with a tagged error body; persistence failures do
// not, the already-computed result is still returned.
func (h *Handlers) Detect(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		metrics.DetectRequestsTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "An image file is required",
			"error":   err.Error(),
		})
		return
	}

	filename := strconv.FormatInt(time.Now().UnixNano(), 10) + "_" + sanitizeFilename(file.Filename)
	savePath := filepath.Join(h.uploadsDir, filename)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		metrics.DetectRequestsTotal.WithLabelValues("upload_error").Inc()
		log.WithError(err).Error("Failed to save uploaded image")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to store uploaded image",
			"error":   err.Error(),
		})
		return
	}

	imageData, err := os.ReadFile(savePath)
	if err != nil {
		metrics.DetectRequestsTotal.WithLabelValues("upload_error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to read uploaded image",
			"error":   err.Error(),
		})
		return
	}

	timer := prometheus.NewTimer(metrics.DetectorLatencySeconds)
	det, err := h.detector.Detect(c.Request.Context(), imageData, filename)
	timer.ObserveDuration()
	if err != nil {
		metrics.DetectRequestsTotal.WithLabelValues("detector_error").Inc()
		log.WithError(err).Error("Detector invocation failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Disease detection failed",
			"error":   err.Error(),
		})
		return
	}

	result, err := h.resolver.Resolve(det, filename, imageData)
	if err != nil {
		metrics.DetectRequestsTotal.WithLabelValues("resolve_error").Inc()
		log.WithError(err).Error("Failed to resolve detection result")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to produce detection result",
			"error":   err.Error(),
		})
		return
	}

	// Persistence is best-effort: the result is returned even if the
	// insert fails.
	if id, err := h.db.SaveDetection(c.Request.Context(), result); err != nil {
		log.WithError(err).Warn("Failed to persist detection result")
	} else {
		result.ID = id
	}

	metrics.DetectRequestsTotal.WithLabelValues("success").Inc()
	metrics.SeverityTotal.WithLabelValues(result.Severity).Inc()
	metrics.LesionCount.Observe(float64(result.LesionCount))

	h.notify(result)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// notify fans the result out to the alert mailer and the event broker.
// Both are best-effort.
func (h *Handlers) notify(result *models.DetectionResult) {
	if h.sender != nil && result.Severity == string(inference.SeveritySevere) {
		annotated, err := os.ReadFile(h.refPath(result.ResultImage))
		if err != nil {
			log.WithError(err).Warn("Failed to read annotated image for alert email")
			annotated = nil
		}
		h.sender.SendSevereAlert(result, annotated)
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(result); err != nil {
			log.WithError(err).Warn("Failed to publish detection event")
		}
	}
}

// History returns all persisted detections, newest first.
func (h *Handlers) History(c *gin.Context) {
	detections, err := h.db.ListDetections(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list detections")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load detection history",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    detections,
	})
}

// DeleteDetection removes one detection record and its image files.
func (h *Handlers) DeleteDetection(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid detection id",
		})
		return
	}

	det, err := h.db.GetDetection(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Errorf("Failed to load detection %d", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load detection",
			"error":   err.Error(),
		})
		return
	}
	if det == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Detection not found",
		})
		return
	}

	deleted, err := h.db.DeleteDetection(c.Request.Context(), id)
	if err != nil || !deleted {
		log.WithError(err).Errorf("Failed to delete detection %d", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to delete detection",
		})
		return
	}

	// Image cleanup is best-effort; the row is already gone. The Healthy
	// case shares one file for both references.
	removeFile(h.refPath(det.OriginalImage))
	if det.ResultImage != det.OriginalImage {
		removeFile(h.refPath(det.ResultImage))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Detection deleted successfully",
		"id":      id,
	})
}

// Feedback stores a rating for a past detection.
func (h *Handlers) Feedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Rating must be between 1 and 5",
		})
		return
	}

	if err := h.db.SaveFeedback(c.Request.Context(), &req); err != nil {
		log.WithError(err).Error("Failed to save feedback")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to save feedback",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Feedback saved successfully",
	})
}

// ForumList returns all forum posts, newest first.
func (h *Handlers) ForumList(c *gin.Context) {
	posts, err := h.db.ListForumPosts(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list forum posts")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load forum posts",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    posts,
	})
}

// ForumCreate adds a forum post.
func (h *Handlers) ForumCreate(c *gin.Context) {
	var post models.ForumPost
	if err := c.ShouldBindJSON(&post); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return
	}

	id, err := h.db.CreateForumPost(c.Request.Context(), &post)
	if err != nil {
		log.WithError(err).Error("Failed to create forum post")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to create forum post",
			"error":   err.Error(),
		})
		return
	}
	post.ID = id

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    post,
	})
}

// ReportPDF renders a persisted detection as a downloadable PDF report.
func (h *Handlers) ReportPDF(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid detection id",
		})
		return
	}

	det, err := h.db.GetDetection(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Errorf("Failed to load detection %d", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load detection",
			"error":   err.Error(),
		})
		return
	}
	if det == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Detection not found",
		})
		return
	}

	pdfData, err := report.GeneratePDF(det, h.refPath(det.OriginalImage), h.refPath(det.ResultImage))
	if err != nil {
		log.WithError(err).Errorf("Failed to render report for detection %d", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to render report",
			"error":   err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=riceguard_report_"+strconv.FormatInt(id, 10)+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdfData)
}

// Chat answers a question through the offline assistant.
func (h *Handlers) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    models.ChatResponse{Reply: h.bot.Answer(req.Message)},
	})
}

// refPath maps an "/uploads/..." reference to its filesystem path under
// the configured uploads directory.
func (h *Handlers) refPath(ref string) string {
	if !strings.HasPrefix(ref, "/uploads/") {
		return ""
	}
	rest := strings.TrimPrefix(ref, "/uploads/")
	if rest == "" {
		return ""
	}
	return filepath.Join(h.uploadsDir, filepath.FromSlash(rest))
}

func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove %s: %v", path, err)
	}
}

// sanitizeFilename keeps only the base name and replaces characters
// that could escape the uploads directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(" ", "_", "..", "_", "/", "_", "\\", "_")
	name = replacer.Replace(name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
