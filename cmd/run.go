package cmd

import (
	"context"
	"fmt"
	"time"

	"drinktab/chatops"
	"drinktab/config"
	"drinktab/database"
	"drinktab/events"
	"drinktab/repository"
	"drinktab/service"
	"drinktab/web"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting drinktab...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	messenger := chatops.New(chatops.Config{
		Host:      cfg.ChatOpsHost,
		AuthToken: cfg.ChatOpsAuthToken,
		CSRFToken: cfg.ChatOpsCSRFToken,
		TeamID:    cfg.ChatOpsTeamID,
		Timeout:   cfg.ChatOpsTimeout,
	})

	resolver := service.NewResolver(cfg.TagSuffix)
	userService := service.NewUserService(uowFactory, resolver)
	billingService := service.NewBillingService(uowFactory, resolver)
	reminderService := service.NewReminderService(uowFactory, messenger, resolver, eventBus, cfg.ChatOpsDefaultChannelID)

	app := web.NewApp(userService, billingService, reminderService, messenger, eventBus)

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":        cfg.Port,
			"environment": cfg.Environment,
		}).Info("HTTP server listening")
		serverErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serverErr:
		db.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error during server shutdown")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
