package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Indirection for tests that capture stdout.
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel integration.
// The active logger is swapped atomically; AttachContext may be called while
// other goroutines are logging.
type SlogManager struct {
	logger atomic.Pointer[slog.Logger]
	multi  *MultiHandler

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to the file writer when
// one is given, to stdout otherwise, and additionally to OTel when a provider
// is available.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	// OTel handler (if provider is available)
	if provider != nil {
		otelHandler := otelslog.NewHandler("rogained", otelslog.WithLoggerProvider(provider))
		handlers = append(handlers, otelHandler)
	}

	m.multi = NewMultiHandler(handlers...)
	m.logger.Store(slog.New(m.multi))
	m.Logger().Info("Logging initialized", "level", level)
}

// AttachContext rebuilds the logger so every record carries the dynamic
// attributes supplied by the provider. The session layer uses this to stamp
// the active game ID and score on every line.
func (m *SlogManager) AttachContext(provider ContextProvider) {
	if m.multi == nil {
		return
	}
	m.logger.Store(slog.New(NewContextHandler(m.multi, provider)))
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if l := m.logger.Load(); l != nil {
		return l
	}
	// Return a default logger if Setup hasn't been called
	return slog.Default()
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
