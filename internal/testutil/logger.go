package testutil

import (
	"io"
	"log/slog"

	"github.com/dmitrijs2005/hbd/internal/logging"
)

func MakeNoopLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})))
}
