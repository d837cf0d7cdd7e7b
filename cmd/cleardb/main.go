// Command cleardb wipes the detections table so real uploads populate a
// fresh history.
package main

import (
	"context"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"riceguard/config"
	"riceguard/database"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	deleted, err := db.ClearDetections(context.Background())
	if err != nil {
		log.Fatalf("Failed to clear detections: %v", err)
	}

	log.Infof("Cleared %d detections from the database", deleted)
}
