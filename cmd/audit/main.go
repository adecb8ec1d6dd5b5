package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/hydrogen-audit-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hydrogen-audit-service/internal/adapter/kafka"
	"github.com/couchcryptid/hydrogen-audit-service/internal/adapter/pdftext"
	"github.com/couchcryptid/hydrogen-audit-service/internal/config"
	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
	"github.com/couchcryptid/hydrogen-audit-service/internal/observability"
	"github.com/couchcryptid/hydrogen-audit-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	artifacts, err := loadArtifacts(cfg, logger)
	if err != nil {
		logger.Error("failed to load model artifacts", "error", err,
			"model_path", cfg.ModelPath, "features_path", cfg.FeaturesPath)
		os.Exit(1)
	}

	// Publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.ReportPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p, err := pipeline.New(artifacts, pdftext.NewExtractor(), publisher, cfg.Tolerance, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger, metrics,
		httpadapter.WithMaxUploadBytes(cfg.MaxUploadBytes),
		httpadapter.WithResultCache(cfg.ResultCacheSize),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadArtifacts reads the trained model. Missing artifacts are fatal unless
// TRAIN_IF_MISSING is set, in which case the training job runs first.
func loadArtifacts(cfg *config.Config, logger *slog.Logger) (*model.Artifacts, error) {
	if !model.ArtifactsExist(cfg.ModelPath, cfg.FeaturesPath) && cfg.TrainIfMissing {
		logger.Warn("model artifacts missing, training at startup", "dataset", cfg.DatasetPath)
		m, err := model.TrainAndSave(cfg.DatasetPath, cfg.ModelPath, cfg.FeaturesPath, model.DefaultLambda, time.Now())
		if err != nil {
			return nil, err
		}
		logger.Info("model trained", "rows", m.Rows, "features", len(m.Features), "r_squared", m.RSquared)
	}

	artifacts, err := model.LoadArtifacts(cfg.ModelPath, cfg.FeaturesPath)
	if err != nil {
		return nil, err
	}
	logger.Info("model artifacts loaded", "features", artifacts.Schema.Len(), "locations", artifacts.Schema.Locations())
	return artifacts, nil
}
