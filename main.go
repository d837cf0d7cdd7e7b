package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riceguard/annotate"
	"riceguard/chatbot"
	"riceguard/config"
	"riceguard/database"
	"riceguard/detector"
	"riceguard/email"
	"riceguard/events"
	"riceguard/handlers"
	"riceguard/history"
	"riceguard/inference"
	"riceguard/metrics"
	"riceguard/middleware"
)

func main() {
	// Optional .env bootstrap for local development
	_ = godotenv.Load()

	cfg := config.Load()

	log.Info("Starting the riceguard service...")

	// Ensure the upload directories exist
	if err := os.MkdirAll(filepath.Join(cfg.UploadsDir, "results"), 0o755); err != nil {
		log.Fatalf("Failed to create uploads directory: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureTables(context.Background()); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize collaborators
	historyLog := history.NewLog(cfg.HistoryFile)
	detectorClient := detector.NewClient(cfg.DetectorURL, cfg.DetectorTimeout,
		cfg.ConfThreshold, cfg.IoUThreshold, cfg.InputSize)
	resolver := inference.NewResolver(cfg.UploadsDir, historyLog, annotate.NewRenderer())
	bot := chatbot.New()
	sender := email.NewSender(cfg.SendGridAPIKey, cfg.SendGridName, cfg.SendGridFrom, cfg.AlertRecipients)

	var publisher handlers.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.WithError(err).Warn("Event publishing disabled, RabbitMQ not reachable")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	metrics.Register()

	// Warm the detector sidecar in the background so the first upload
	// does not pay the model load time.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DetectorTimeout)
		defer cancel()
		if err := detectorClient.EnsureReady(ctx); err != nil {
			log.WithError(err).Warn("Detector sidecar not ready yet")
		}
	}()

	h := handlers.NewHandlers(db, resolver, detectorClient, bot, sender, publisher, cfg.UploadsDir)
	limiter := middleware.NewRateLimiter(cfg.DetectRateLimit, cfg.DetectRateWindow)

	router := gin.Default()
	router.Use(corsMiddleware())

	router.Static("/uploads", cfg.UploadsDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v3")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/detect", limiter.Middleware(), h.Detect)
		api.GET("/history", h.History)
		api.DELETE("/history/:id", h.DeleteDetection)
		api.POST("/feedback", h.Feedback)
		api.GET("/forum", h.ForumList)
		api.POST("/forum", h.ForumCreate)
		api.GET("/report/:id/pdf", h.ReportPDF)
		api.POST("/chatbot", h.Chat)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
