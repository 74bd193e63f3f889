// cmd/server/main.go
package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/scalixity/campaign-backend/internal/config"
	"github.com/scalixity/campaign-backend/internal/controller"
	"github.com/scalixity/campaign-backend/internal/ledger"
	"github.com/scalixity/campaign-backend/internal/logging"
	"github.com/scalixity/campaign-backend/internal/pacing"
	"github.com/scalixity/campaign-backend/internal/sender"
	"github.com/scalixity/campaign-backend/internal/service"
)

func main() {
	// Load .env before parsing config; absence is fine in deployed envs.
	envMissing := godotenv.Load() != nil

	cfg, err := config.Load()
	logger := logging.New(cfg.Log)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading configuration")
	}
	if envMissing {
		logger.Warn().Msg("no .env file found, relying on OS environment variables")
	}

	store := ledger.New()
	pacer := pacing.New(cfg.Pacing.ShortDelay, cfg.Pacing.LongDelay, cfg.Pacing.BatchSize)

	var snd service.Sender = sender.Unconfigured{}
	var wa *sender.Client
	if cfg.WhatsApp.Configured() {
		wa, err = sender.NewClient(cfg.WhatsApp, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("building whatsapp client")
		}
		snd = wa
	} else {
		logger.Warn().Msg("whatsapp credentials not set, campaigns will fail at dispatch")
	}

	engine := &service.Engine{
		Ledger: store,
		Sender: snd,
		Pacer:  pacer,
		Log:    logger,
	}

	campaignController := controller.NewCampaignController(engine, store, wa, cfg.Upload.Dir, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// Campaign routes
	r.Post("/campaigns/upload", campaignController.UploadCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{key}", campaignController.GetCampaign)
	r.Get("/campaigns/{key}/outcomes", campaignController.GetCampaignOutcomes)
	r.Post("/campaigns/{key}/cancel", campaignController.CancelCampaign)
	r.Get("/test-auth", campaignController.TestAuth)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	logger.Info().Str("addr", addr).Msg("server listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
