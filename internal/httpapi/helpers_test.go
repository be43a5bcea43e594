package httpapi

import (
	"io"
	"log/slog"

	"github.com/earthview/globe/internal/logging"
)

func newBufferLogger(w io.Writer) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(logging.NewContextHandler(text, nil))
}
