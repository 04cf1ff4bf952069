// notify builds a digest of predicted optimal call hours for stored
// contacts and sends it to the configured Telegram chat.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialwise/calltime-predictor/config"
	"github.com/dialwise/calltime-predictor/internal/classifier"
	"github.com/dialwise/calltime-predictor/internal/database"
	"github.com/dialwise/calltime-predictor/internal/inference"
	"github.com/dialwise/calltime-predictor/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if !cfg.AuditEnabled() {
		log.Fatal().Msg("DB_HOST not set, nowhere to read contacts from")
	}
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set")
	}

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("Failed to load model")
	}
	engine := inference.NewEngine(model)

	contacts, err := db.PendingContacts(time.Duration(cfg.NotifyWindow) * time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load contacts")
	}
	if len(contacts) == 0 {
		log.Info().Msg("No contacts pending, nothing to send")
		return
	}
	log.Info().Int("contacts", len(contacts)).Msg("Building call-window digest")

	rates, err := db.ObservedAnswerRates()
	if err != nil {
		log.Warn().Err(err).Msg("Observed answer rates unavailable, using stored rates")
	}

	resp, err := engine.Predict(buildMatrix(contacts, rates))
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction failed")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	msg := tgbotapi.NewMessage(cfg.TelegramChatID, buildDigest(contacts, resp, cfg.MinConfidence))
	msg.ParseMode = "Markdown"
	if _, err := bot.Send(msg); err != nil {
		log.Fatal().Err(err).Msg("Failed to send digest")
	}

	ids := make([]int64, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	if err := db.MarkNotified(ids); err != nil {
		log.Error().Err(err).Msg("Digest sent but contacts not marked")
		os.Exit(1)
	}

	log.Info().Int("contacts", len(contacts)).Msg("Digest sent")
}

// buildMatrix assembles feature rows for stored contacts, in stored order.
// When a call outcome has been observed for a contact's (day, hour) key the
// observed rate replaces the stored one, so digests track real outcomes as
// they accumulate.
func buildMatrix(contacts []database.ContactRecord, rates map[database.AnswerRateKey]float64) models.FeatureMatrix {
	matrix := make(models.FeatureMatrix, len(contacts))
	for i, c := range contacts {
		rate := c.AnswerRate
		if observed, ok := rates[database.AnswerRateKey{DayOfWeek: c.DayOfWeek, HourOfDay: c.HourOfDay}]; ok {
			rate = observed
		}
		matrix[i] = models.FeatureRow{float64(c.DayOfWeek), float64(c.HourOfDay), rate}
	}
	return matrix
}

// buildDigest renders one line per contact, in stored order. Predictions
// below the confidence floor are listed but flagged as low-confidence so
// nobody auto-dials on them.
func buildDigest(contacts []database.ContactRecord, resp models.ResponsePayload, minConfidence float64) string {
	var sb strings.Builder
	sb.WriteString("*Optimal call windows*\n\n")
	for i, c := range contacts {
		sb.WriteString(fmt.Sprintf("• %s: %02d:00 (confidence %.0f%%)",
			c.Label, resp.OptimalHours[i], resp.Confidence[i]*100))
		if resp.Confidence[i] < minConfidence {
			sb.WriteString(" ⚠️ low confidence")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
