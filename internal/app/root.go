package app

import (
	"context"

	"github.com/oshokin/forvo-grabber/internal/client/ankiconnect"
	forvo_client "github.com/oshokin/forvo-grabber/internal/client/forvo"
	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/logger"
	forvo_service "github.com/oshokin/forvo-grabber/internal/service/forvo"
)

// ExecuteRootCommand is the entry point for the application.
// It initializes the Forvo and AnkiConnect clients, sets up the service components,
// and downloads pronunciations of the provided words.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, words []string) {
	forvoClient, err := forvo_client.NewClient(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize forvo client: %v", err)
	}

	var ankiClient ankiconnect.Client
	if cfg.StoreInAnki && !cfg.DryRun {
		ankiClient = newAnkiClient(ctx, cfg)
	}

	wordProcessor := forvo_service.NewWordProcessor()
	templateManager := forvo_service.NewTemplateManager(ctx, cfg)
	tagProcessor := forvo_service.NewTagProcessor()

	s := forvo_service.NewService(cfg, forvoClient, ankiClient, wordProcessor, templateManager, tagProcessor)

	// Ensure statistics are ALWAYS printed, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintDownloadSummary(ctx)
	}()

	s.DownloadWords(ctx, words)
}

// newAnkiClient creates the AnkiConnect client and checks that Anki is reachable.
// An unreachable Anki is reported but does not stop the downloads.
func newAnkiClient(ctx context.Context, cfg *config.Config) ankiconnect.Client {
	client := ankiconnect.NewClient(cfg)

	apiVersion, err := client.Version(ctx)
	if err != nil {
		logger.Errorf(ctx, "AnkiConnect is not available at %s, files will only be saved to disk: %v",
			cfg.AnkiConnectURL, err)

		return client
	}

	if apiVersion < ankiconnect.APIVersion {
		logger.Warnf(ctx, "AnkiConnect API version %d is older than %d, storing files may fail",
			apiVersion, ankiconnect.APIVersion)
	}

	logger.Debugf(ctx, "AnkiConnect API version: %d", apiVersion)

	return client
}
