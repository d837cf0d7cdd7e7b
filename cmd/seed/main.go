// Command seed fills the detections table with randomized sample data
// from the past 30 days, for demoing the history UI.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"riceguard/config"
	"riceguard/database"
	"riceguard/inference"
	"riceguard/models"
)

const sampleCount = 20

var diseases = []string{"Rice Blast", "Brown Spot", "Leaf Smut", "False Smut", "Stem Rot", "Healthy"}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureTables(ctx); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	for i := 1; i <= sampleCount; i++ {
		disease := diseases[rand.Intn(len(diseases))]

		lesionCount := 0
		severity := inference.SeverityNone
		confidence := 99.0
		if disease != inference.HealthyDisease {
			lesionCount = 1 + rand.Intn(10)
			severity = inference.SeverityForCount(lesionCount)
			confidence = float64(4000+rand.Intn(5900)) / 100
		}

		createdAt := time.Now().
			Add(-time.Duration(1+rand.Intn(30)) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(24*60)) * time.Minute)

		originalRef := fmt.Sprintf("/uploads/sample_%d.png", i)
		resultRef := fmt.Sprintf("/uploads/results/result_sample_%d.png", i)
		if disease == inference.HealthyDisease {
			resultRef = originalRef
		}

		result := &models.DetectionResult{
			Disease:       disease,
			Confidence:    confidence,
			Severity:      string(severity),
			LesionCount:   lesionCount,
			OriginalImage: originalRef,
			ResultImage:   resultRef,
			Timestamp:     createdAt.Format(time.RFC3339),
		}

		if _, err := db.SaveDetectionAt(ctx, result, createdAt); err != nil {
			log.Fatalf("Failed to insert sample detection %d: %v", i, err)
		}
	}

	log.Infof("Seeded %d sample detections from the past 30 days", sampleCount)
}
