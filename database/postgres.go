package database

import (
	"fmt"

	"portal-chat/config"
	"portal-chat/logger"
	"portal-chat/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Postgres *gorm.DB

func PostgresConnect() {
	var err error
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Config("POSTGRES_HOST"),
		config.ConfigDefault("POSTGRES_PORT", "5432"),
		config.Config("POSTGRES_USER"),
		config.Config("POSTGRES_PASSWORD"),
		config.Config("POSTGRES_DB"),
		config.ConfigDefault("POSTGRES_SSLMODE", "disable"),
	)

	logLevel := gormlogger.Warn
	if config.Config("APP_ENV") == "development" {
		logLevel = gormlogger.Info
	}

	Postgres, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect postgres: %v", err))
	}
	logger.Info().Msg("connection opened to Postgres")

	if err := Migrate(Postgres); err != nil {
		panic(fmt.Sprintf("failed to migrate postgres: %v", err))
	}
	logger.Info().Msg("postgres database migrated")
}

// Migrate creates or updates the tables this service reads and writes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Profile{},
		&model.ChatMessage{},
	)
}
