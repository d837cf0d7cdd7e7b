package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"riceguard/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	svc  *Service
)

func setUp() {
	db, mock, _ = sqlmock.New()
	svc = New(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestSaveDetection(t *testing.T) {
	it(func() {
		result := &models.DetectionResult{
			Disease:       "Rice Blast",
			Confidence:    91.25,
			Severity:      "Moderate",
			LesionCount:   5,
			OriginalImage: "/uploads/leaf.jpg",
			ResultImage:   "/uploads/results/result_leaf.jpg",
		}

		mock.ExpectExec("INSERT INTO detections").
			WithArgs("Rice Blast", 91.25, "Moderate", 5, "/uploads/leaf.jpg", "/uploads/results/result_leaf.jpg").
			WillReturnResult(sqlmock.NewResult(7, 1))

		id, err := svc.SaveDetection(context.Background(), result)
		if err != nil {
			t.Fatalf("SaveDetection failed: %v", err)
		}
		if id != 7 {
			t.Errorf("Expected id 7, got %d", id)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
}

func TestListDetectionsNewestFirst(t *testing.T) {
	it(func() {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "disease", "confidence", "severity", "lesion_count",
			"image_path", "result_path", "created_at",
		}).
			AddRow(2, "Tungro", 62.0, "Severe", 9, "/uploads/b.jpg", "/uploads/results/result_b.jpg", now).
			AddRow(1, "Healthy", 99.0, "None", 0, "/uploads/a.jpg", "/uploads/a.jpg", now.Add(-time.Hour))

		mock.ExpectQuery("SELECT (.+) FROM detections ORDER BY created_at DESC").
			WillReturnRows(rows)

		detections, err := svc.ListDetections(context.Background())
		if err != nil {
			t.Fatalf("ListDetections failed: %v", err)
		}
		if len(detections) != 2 {
			t.Fatalf("Expected 2 detections, got %d", len(detections))
		}
		if detections[0].Disease != "Tungro" {
			t.Errorf("Expected newest detection first, got %q", detections[0].Disease)
		}
		if detections[1].ResultImage != detections[1].OriginalImage {
			t.Errorf("Expected Healthy row to reuse the original image reference")
		}
	})
}

func TestGetDetectionMissingReturnsNil(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM detections WHERE id").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		det, err := svc.GetDetection(context.Background(), 99)
		if err != nil {
			t.Fatalf("GetDetection failed: %v", err)
		}
		if det != nil {
			t.Errorf("Expected nil for missing detection, got %+v", det)
		}
	})
}

func TestDeleteDetection(t *testing.T) {
	it(func() {
		testCases := []struct {
			name         string
			rowsAffected int64
			wantDeleted  bool
		}{
			{name: "existing row", rowsAffected: 1, wantDeleted: true},
			{name: "missing row", rowsAffected: 0, wantDeleted: false},
		}

		for _, tc := range testCases {
			mock.ExpectExec("DELETE FROM detections WHERE id").
				WithArgs(int64(5)).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))

			deleted, err := svc.DeleteDetection(context.Background(), 5)
			if err != nil {
				t.Fatalf("%s: DeleteDetection failed: %v", tc.name, err)
			}
			if deleted != tc.wantDeleted {
				t.Errorf("%s: expected deleted=%v, got %v", tc.name, tc.wantDeleted, deleted)
			}
		}
	})
}

func TestSaveFeedback(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO feedback").
			WithArgs(int64(3), 4, "helpful").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := svc.SaveFeedback(context.Background(), &models.FeedbackRequest{
			DetectionID: 3,
			Rating:      4,
			Comments:    "helpful",
		})
		if err != nil {
			t.Fatalf("SaveFeedback failed: %v", err)
		}
	})
}

func TestCreateForumPost(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO forum_posts").
			WithArgs("farmer1", "Blast outbreak", "Seeing lesions on my field").
			WillReturnResult(sqlmock.NewResult(11, 1))

		id, err := svc.CreateForumPost(context.Background(), &models.ForumPost{
			User:    "farmer1",
			Title:   "Blast outbreak",
			Content: "Seeing lesions on my field",
		})
		if err != nil {
			t.Fatalf("CreateForumPost failed: %v", err)
		}
		if id != 11 {
			t.Errorf("Expected id 11, got %d", id)
		}
	})
}

func TestClearDetections(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM detections").
			WillReturnResult(sqlmock.NewResult(0, 20))

		deleted, err := svc.ClearDetections(context.Background())
		if err != nil {
			t.Fatalf("ClearDetections failed: %v", err)
		}
		if deleted != 20 {
			t.Errorf("Expected 20 deleted, got %d", deleted)
		}
	})
}
