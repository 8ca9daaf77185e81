package main

import (
	"context"
	"fmt"
	"os"

	"dispatch-service/internal/auth"
	"dispatch-service/internal/client"
	"dispatch-service/internal/config"
	httphandler "dispatch-service/internal/http"
	"dispatch-service/internal/http/middleware"
	"dispatch-service/internal/logger"
	"dispatch-service/internal/repository"
	"dispatch-service/internal/rowstore"
	"dispatch-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)
	ctx := context.Background()

	store, err := rowstore.NewSheetsStore(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect spreadsheet")
	}
	if err := store.EnsureTables(ctx); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to prepare spreadsheet tables")
	}

	ticketRepo := repository.NewTicketRepository(store)
	jobRepo := repository.NewJobRepository(store)
	photoRepo := repository.NewPhotoRepository(store)
	adjustmentRepo := repository.NewAdjustmentRepository(store)
	syncLogRepo := repository.NewSyncLogRepository(store)

	notifier := client.NewNotifier(cfg.Notify.SMSWebhookURL, cfg.Notify.EmailWebhookURL, cfg.Notify.Token, appLogger)

	ledgerService := service.NewLedgerService(jobRepo, ticketRepo, appLogger)
	ticketService := service.NewTicketService(ticketRepo, adjustmentRepo, ledgerService, notifier, appLogger)
	photoService := service.NewPhotoService(photoRepo, ticketRepo, jobRepo, appLogger)

	crmClient := client.NewJobNimbusClient(cfg.JobNimbus.BaseURL, cfg.JobNimbus.APIKey)
	syncService := service.NewSyncService(jobRepo, syncLogRepo, crmClient, cfg.JobNimbus.SyncDelay, appLogger)

	var media client.BlobStore
	switch {
	case cfg.Media.GCSBucket != "":
		gcs, err := client.NewGCSBlobStore(ctx, cfg.Media.GCSBucket)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to init media storage")
		}
		media = gcs
	case cfg.Media.UploadURL != "":
		media = client.NewHTTPBlobStore(cfg.Media.UploadURL, cfg.Media.UploadToken)
	default:
		appLogger.Warn().Msg("media storage not configured, photo uploads disabled")
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(ticketService, photoService, ledgerService, syncService, media, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting dispatch service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
