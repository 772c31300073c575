package main

import (
	"log"

	"messaging-service/internal/config"
	"messaging-service/internal/db"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Println("schema is up to date")
}
