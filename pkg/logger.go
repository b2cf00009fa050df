package translator

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.Nop()

// SetLogger installs the package logger. The zero value logs nothing.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// NewLogger builds a structured logger writing to out at the given level.
func NewLogger(out io.Writer, level string) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), err
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
