package main

import (
	"context"
	"log"
	"time"

	"cargo-booking/cmd"
	"cargo-booking/internal/data/repository"
	"cargo-booking/internal/wire"
	"cargo-booking/pkg/database"
	"cargo-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("role_policy", config.App.RolePolicy),
	)

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	app := wire.Wiring(repos, config, logger)
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Failed to close app resources", zap.Error(err))
		}
	}()

	if err := cmd.APIServer(app.Router, config.App.Port, app, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
