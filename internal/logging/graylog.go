package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a JSON slog handler that ships records to a
// Graylog GELF UDP input at addr. The returned closer releases the socket.
func NewGraylogHandler(addr, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect graylog %s: %w", addr, err)
	}
	w.Facility = InstrumentationName
	return slog.NewJSONHandler(w, handlerOptions(level)), w, nil
}
