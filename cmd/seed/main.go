// Command main runs the database seeder for Orgdesk.
package main

import (
	"flag"
	"log"

	"orgdesk/internal/config"
	"orgdesk/internal/database"
	"orgdesk/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPerEntity := flag.Int("per-entity", 10, "Number of records to create per entity type")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d records per entity type, clean=%v\n", *numUsers, *numPerEntity, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:     *numUsers,
		NumPerEntity: *numPerEntity,
		ShouldClean:  *shouldClean,
		DryRun:       *dryRun,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done. Test users have the password: password123")
}
