// cmd/sendcsv/main.go
//
// Batch sender: runs one campaign from a recipients CSV straight from the
// terminal, without the HTTP server. With -dry-run messages are recorded but
// nothing reaches the provider.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/scalixity/campaign-backend/internal/config"
	"github.com/scalixity/campaign-backend/internal/ingest"
	"github.com/scalixity/campaign-backend/internal/ledger"
	"github.com/scalixity/campaign-backend/internal/logging"
	"github.com/scalixity/campaign-backend/internal/model"
	"github.com/scalixity/campaign-backend/internal/pacing"
	"github.com/scalixity/campaign-backend/internal/sender"
	"github.com/scalixity/campaign-backend/internal/service"
)

func main() {
	var (
		csvPath      = flag.String("csv", "", "path to the recipients CSV (required)")
		template     = flag.String("template", "", "message template with {{placeholder}} fields")
		templateName = flag.String("template-name", "", "provider-side template name (used when -template is empty)")
		language     = flag.String("lang", "", "provider template language code")
		phoneColumn  = flag.String("phone-column", "", "CSV header holding the number (default Mobile)")
		key          = flag.String("key", "", "campaign key (default: CSV base name)")
		dryRun       = flag.Bool("dry-run", false, "render and record outcomes without contacting the provider")
		outPath      = flag.String("out", "", "write the outcome list to this JSON file")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	logger := logging.New(cfg.Log)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading configuration")
	}
	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *template == "" && *templateName == "" {
		logger.Fatal().Msg("one of -template or -template-name is required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening csv")
	}
	recipients, err := ingest.ParseRecipients(f, ingest.Options{PhoneColumn: *phoneColumn})
	f.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("parsing csv")
	}
	logger.Info().Int("recipients", len(recipients)).Msg("csv parsed")

	store := ledger.New()
	engine := &service.Engine{
		Ledger: store,
		Pacer:  pacing.New(cfg.Pacing.ShortDelay, cfg.Pacing.LongDelay, cfg.Pacing.BatchSize),
		Log:    logger,
	}

	var producer service.MessageProducer = service.TemplateProducer{Template: *template}
	if *template == "" {
		producer = service.StaticProducer{Body: "template " + *templateName}
	}

	switch {
	case *dryRun:
		logger.Info().Msg("dry run: no messages will be sent")
		engine.Sender = &sender.Mock{}
	default:
		client, err := sender.NewClient(cfg.WhatsApp, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("building whatsapp client")
		}
		if *template == "" {
			engine.Sender = sender.TemplateSender{Client: client, Name: *templateName, Lang: *language}
		} else {
			engine.Sender = client
		}
	}

	campaignKey := *key
	if campaignKey == "" {
		campaignKey = strings.TrimSuffix(filepath.Base(*csvPath), filepath.Ext(*csvPath))
	}

	run, err := engine.Submit(context.Background(), campaignKey, service.NewSliceSource(recipients), producer)
	if err != nil {
		logger.Fatal().Err(err).Msg("starting campaign")
	}
	<-run.Done()

	view, err := store.Snapshot(campaignKey, true)
	if err != nil {
		logger.Fatal().Err(err).Msg("reading results")
	}
	logger.Info().
		Str("status", string(view.Status)).
		Int("total", view.Total).
		Int("successful", view.Successful).
		Int("failed", view.Failed).
		Msg("campaign finished")

	if *outPath != "" {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			logger.Fatal().Err(err).Msg("encoding results")
		}
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			logger.Fatal().Err(err).Msg("writing results")
		}
		logger.Info().Str("path", *outPath).Msg("results saved")
	}

	if view.Status != model.StatusCompleted {
		os.Exit(1)
	}
}
