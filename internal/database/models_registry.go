package database

import "orgdesk/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Document{},
		&models.Event{},
		&models.FinanceTransaction{},
		&models.Letter{},
		&models.WorkProgram{},
		&models.GalleryImage{},
		&models.Approval{},
	}
}
