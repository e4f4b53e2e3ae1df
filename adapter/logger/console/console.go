package console

import (
	"io"
	"os"
	"time"

	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/rs/zerolog"
)

type console struct {
	zlog zerolog.Logger
}

// New writes to stderr; pretty selects the human readable console format
// over JSON lines.
func New(level string, pretty bool) *console {
	return NewWithWriter(os.Stderr, level, pretty)
}

func NewWithWriter(w io.Writer, level string, pretty bool) *console {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return &console{
		zlog: zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "edgar").Logger(),
	}
}

// Nop discards everything, for tests.
func Nop() *console {
	return &console{zlog: zerolog.Nop()}
}

func (c *console) Log(msg string) {
	c.zlog.Info().Msg(msg)
}

func (c *console) Debug(msg string) {
	c.zlog.Debug().Msg(msg)
}

func (c *console) Error(msg string, err error) {
	c.zlog.Error().Err(err).Msg(msg)
}

func (c *console) With(key string, value any) logger.Logger {
	return &console{zlog: c.zlog.With().Interface(key, value).Logger()}
}
