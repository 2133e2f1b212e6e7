package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

func Init() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	output := os.Getenv("LOG_FORMAT")
	if output == "json" {
		// JSON format for production
		Logger = zerolog.New(os.Stdout).With().
			Timestamp().
			Logger().
			Level(level)
	} else {
		// Pretty console format for development
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Logger().
			Level(level)
	}

	log.Logger = Logger
}

// WithRequestID adds request ID to logger context
func WithRequestID(requestID string) zerolog.Logger {
	return Logger.With().Str("request_id", requestID).Logger()
}
