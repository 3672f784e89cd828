package config

import (
	"log"
	"os"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"document-portal-gateway/models"
)

var DB *gorm.DB

// InitDB opens the local sqlite store holding sessions and UI preferences.
// The gateway keeps no document data; everything else lives behind the
// upstream portal API.
func InitDB() {
	var err error

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}

	DB, err = gorm.Open(sqlite.Open(SessionDBPath()), gormConfig)
	if err != nil {
		log.Fatal("Failed to open session store:", err)
	}

	if err := DB.AutoMigrate(&models.Session{}, &models.Preference{}); err != nil {
		log.Fatal("Failed to migrate session store:", err)
	}

	log.Printf("Session store ready at %s", SessionDBPath())
}
