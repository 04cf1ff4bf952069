package main

import (
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver for the optional audit store

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialwise/calltime-predictor/config"
	"github.com/dialwise/calltime-predictor/internal/classifier"
	"github.com/dialwise/calltime-predictor/internal/database"
	"github.com/dialwise/calltime-predictor/internal/handler"
	"github.com/dialwise/calltime-predictor/internal/inference"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	// The model handle is built once here and shared read-only by every
	// request after this point.
	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("Failed to load model")
	}

	var recorder handler.Recorder
	if cfg.AuditEnabled() {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Audit store configured but unreachable")
		}
		defer db.Close()
		recorder = db
		log.Info().Str("host", cfg.DBHost).Str("dbname", cfg.DBName).Msg("Prediction auditing enabled")
	}

	h := handler.New(inference.NewEngine(model), recorder)
	mux := http.NewServeMux()
	h.Register(mux)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.RequestTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	}

	log.Info().Str("addr", cfg.ListenAddr).Msg("Serving inference endpoint")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
