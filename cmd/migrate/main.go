package main

import (
	"log"
	"os"

	"mentalmath/internal/config"
	"mentalmath/internal/database"
	"mentalmath/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Logger)
	l := logger.Get()
	defer l.Sync()

	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrationsPath := "database/migrations"
	if len(os.Args) > 1 {
		migrationsPath = os.Args[1]
	}

	if err := database.RunMigrations(db, migrationsPath); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
	l.Info("Migrations completed successfully")
}
