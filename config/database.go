package config

import (
	"fmt"
	"log"

	"vehicle-vault-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// NotificationTypes is the static lookup seeded at startup.
var NotificationTypes = []models.NotificationType{
	{Type: models.TypeTestDrive, Description: "Test drive request or response"},
	{Type: models.TypeMessage, Description: "New direct message"},
}

// OpenDB opens the SQLite file (or ":memory:"), migrates the schema and
// seeds notification types.
func OpenDB(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:" a single database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Car{},
		&models.NotificationType{},
		&models.Notification{},
		&models.Message{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := seedNotificationTypes(db); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return db, nil
}

// MustOpenDB is OpenDB for main: any failure is fatal.
func MustOpenDB(path string) *gorm.DB {
	db, err := OpenDB(path)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	log.Println("✅ Database connected and migrated successfully")
	return db
}

func seedNotificationTypes(db *gorm.DB) error {
	for _, nt := range NotificationTypes {
		nt := nt
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).Create(&nt).Error
		if err != nil {
			return err
		}
	}
	return nil
}
