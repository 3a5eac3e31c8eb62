// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"

	"orgdesk/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed populates the database with demo data: users (including a fixed admin
// and member account), business entities of every kind, and an approval for
// each entity in a pending-heavy mix of statuses.
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumPerEntity <= 0 {
		opts.NumPerEntity = 8
	}
	log.Printf("Starting database seeding with %d users and %d records per entity type...", opts.NumUsers, opts.NumPerEntity)

	// Clear existing data to avoid conflicts if requested
	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, opts)

	users, err := createUsers(db, factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(users))

	total := 0
	for i := 0; i < opts.NumPerEntity; i++ {
		owner := users[factory.rng.Intn(len(users))]

		doc, err := factory.CreateDocument(owner)
		if err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		if _, err := factory.CreateApproval(models.EntityTypeDocument, doc.ID, owner, factory.randomStatus()); err != nil {
			return fmt.Errorf("failed to open document approval: %w", err)
		}

		ev, err := factory.CreateEvent(owner)
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		if _, err := factory.CreateApproval(models.EntityTypeEvent, ev.ID, owner, factory.randomStatus()); err != nil {
			return fmt.Errorf("failed to open event approval: %w", err)
		}

		tx, err := factory.CreateFinanceTransaction(owner)
		if err != nil {
			return fmt.Errorf("failed to create finance transaction: %w", err)
		}
		if _, err := factory.CreateApproval(models.EntityTypeFinance, tx.ID, owner, factory.randomStatus()); err != nil {
			return fmt.Errorf("failed to open finance approval: %w", err)
		}

		letter, err := factory.CreateLetter(owner)
		if err != nil {
			return fmt.Errorf("failed to create letter: %w", err)
		}
		if _, err := factory.CreateApproval(models.EntityTypeLetter, letter.ID, owner, factory.randomStatus()); err != nil {
			return fmt.Errorf("failed to open letter approval: %w", err)
		}

		wp, err := factory.CreateWorkProgram(owner)
		if err != nil {
			return fmt.Errorf("failed to create work program: %w", err)
		}
		if _, err := factory.CreateApproval(models.EntityTypeWorkProgram, wp.ID, owner, factory.randomStatus()); err != nil {
			return fmt.Errorf("failed to open work program approval: %w", err)
		}

		total += 5
	}
	log.Printf("%d entities created, each with an approval record", total)

	log.Println("Database seeding completed successfully")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE approvals, documents, events, finance_transactions, letters, work_programs, gallery_images, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

// createUsers inserts a fixed admin and member for predictable logins, then
// fills the rest with generated members.
func createUsers(db *gorm.DB, factory *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	fixed := []models.User{
		{Username: "admin", Email: "admin@example.com", FullName: "Admin User", Role: models.UserRoleAdmin},
		{Username: "member", Email: "member@example.com", FullName: "Member User", Role: models.UserRoleMember},
	}
	for i := range fixed {
		fixed[i].Password = string(hashedPassword)
		fixed[i].Avatar = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", fixed[i].Username)
		if factory.opts.DryRun {
			factory.nextID++
			fixed[i].ID = factory.nextID
			users = append(users, &fixed[i])
			continue
		}
		if err := db.Create(&fixed[i]).Error; err == nil {
			users = append(users, &fixed[i])
		}
	}

	for i := len(users); i < count; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users could be created")
	}
	return users, nil
}
