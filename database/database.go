package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"riceguard/config"
	"riceguard/models"
)

// Service is the relational store for detections, feedback and forum
// posts. Inference success never depends on it: callers treat write
// failures as recoverable.
type Service struct {
	db *sql.DB
}

// New wraps an existing connection. Used by tests with a mock driver.
func New(db *sql.DB) *Service {
	return &Service{db: db}
}

// Connect opens the MySQL connection described by cfg and verifies it
// with capped exponential backoff.
func Connect(cfg *config.Config) (*Service, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	waitInterval := 1 * time.Second
	for attempt := 1; ; attempt++ {
		if err := db.Ping(); err == nil {
			break
		} else if attempt >= 6 {
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
		} else {
			log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, err)
			time.Sleep(waitInterval)
			waitInterval *= 2
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Service{db: db}, nil
}

// Close closes the database connection
func (s *Service) Close() error {
	return s.db.Close()
}

// EnsureTables creates the detections, feedback and forum_posts tables
// if they don't exist.
func (s *Service) EnsureTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id INT AUTO_INCREMENT PRIMARY KEY,
			disease VARCHAR(255) NOT NULL,
			confidence FLOAT NOT NULL,
			severity VARCHAR(16) NOT NULL,
			lesion_count INT NOT NULL DEFAULT 0,
			image_path VARCHAR(512) NOT NULL,
			result_path VARCHAR(512) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_detections_created_at (created_at),
			INDEX idx_detections_disease (disease)
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id INT AUTO_INCREMENT PRIMARY KEY,
			detection_id INT NOT NULL,
			rating INT NOT NULL,
			comments TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_feedback_detection_id (detection_id)
		)`,
		`CREATE TABLE IF NOT EXISTS forum_posts (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user VARCHAR(255) NOT NULL,
			title VARCHAR(500) NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// SaveDetection inserts a detection result and returns its generated id.
func (s *Service) SaveDetection(ctx context.Context, result *models.DetectionResult) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (disease, confidence, severity, lesion_count, image_path, result_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.Disease, result.Confidence, result.Severity, result.LesionCount,
		result.OriginalImage, result.ResultImage)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get detection id: %w", err)
	}
	return id, nil
}

// SaveDetectionAt inserts a detection with an explicit creation time.
// Used by the seeding tool to backdate sample rows.
func (s *Service) SaveDetectionAt(ctx context.Context, result *models.DetectionResult, createdAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (disease, confidence, severity, lesion_count, image_path, result_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Disease, result.Confidence, result.Severity, result.LesionCount,
		result.OriginalImage, result.ResultImage, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get detection id: %w", err)
	}
	return id, nil
}

// GetDetection returns one detection by id, or nil if absent.
func (s *Service) GetDetection(ctx context.Context, id int64) (*models.DetectionResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, disease, confidence, severity, lesion_count, image_path, result_path, created_at
		 FROM detections WHERE id = ?`, id)

	d, err := scanDetection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection %d: %w", id, err)
	}
	return d, nil
}

// ListDetections returns all persisted detections, newest first.
func (s *Service) ListDetections(ctx context.Context) ([]models.DetectionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, disease, confidence, severity, lesion_count, image_path, result_path, created_at
		 FROM detections ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	detections := []models.DetectionResult{}
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, *d)
	}
	return detections, rows.Err()
}

// DeleteDetection removes one detection row. Returns false if no row
// matched.
func (s *Service) DeleteDetection(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM detections WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete detection %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get delete status: %w", err)
	}
	return affected > 0, nil
}

// ClearDetections removes every row from the detections table and
// returns the number deleted.
func (s *Service) ClearDetections(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM detections`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear detections: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get delete status: %w", err)
	}
	return affected, nil
}

// SaveFeedback stores a rating for a past detection.
func (s *Service) SaveFeedback(ctx context.Context, fb *models.FeedbackRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (detection_id, rating, comments) VALUES (?, ?, ?)`,
		fb.DetectionID, fb.Rating, fb.Comments)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// CreateForumPost inserts a forum post and returns its generated id.
func (s *Service) CreateForumPost(ctx context.Context, post *models.ForumPost) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO forum_posts (user, title, content) VALUES (?, ?, ?)`,
		post.User, post.Title, post.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to insert forum post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get forum post id: %w", err)
	}
	return id, nil
}

// ListForumPosts returns all forum posts, newest first.
func (s *Service) ListForumPosts(ctx context.Context) ([]models.ForumPost, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user, title, content, created_at FROM forum_posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list forum posts: %w", err)
	}
	defer rows.Close()

	posts := []models.ForumPost{}
	for rows.Next() {
		var p models.ForumPost
		var createdAt time.Time
		if err := rows.Scan(&p.ID, &p.User, &p.Title, &p.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan forum post: %w", err)
		}
		p.CreatedAt = createdAt.Format(time.RFC3339)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDetection(row rowScanner) (*models.DetectionResult, error) {
	var d models.DetectionResult
	var createdAt time.Time
	if err := row.Scan(&d.ID, &d.Disease, &d.Confidence, &d.Severity,
		&d.LesionCount, &d.OriginalImage, &d.ResultImage, &createdAt); err != nil {
		return nil, err
	}
	d.Timestamp = createdAt.Format(time.RFC3339)
	return &d, nil
}
