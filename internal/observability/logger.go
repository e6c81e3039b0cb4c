package observability

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"jcoder/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger: JSON at info level in production,
// text at debug level elsewhere. When LOG_FILE is set the output is also
// written to a rotating file.
func NewLogger(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stdout

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err == nil {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.LogMaxSizeMB,
				MaxAge:     cfg.LogMaxAgeDays,
				MaxBackups: cfg.LogMaxBackups,
				LocalTime:  true,
				Compress:   true,
			})
		}
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
