package db

import "gorm.io/gorm"

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&TaskRecord{}); err != nil {
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		return err
	}

	return nil
}

func createCustomIndexes(db *gorm.DB) error {
	// GIN index backing the tags @> filter
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_tags
		ON tasks USING GIN (tags)
	`).Error; err != nil {
		return err
	}

	return nil
}
