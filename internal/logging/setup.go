// internal/logging/setup.go - slog handler construction
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Level names accepted by the handlers
var Levels = []string{"trace", "debug", "info", "warn", "error"}

type levelSpec struct {
	slog      slog.Level
	charm     log.Level
	caller    bool
	timestamp bool
}

func parseLevel(logLevel string) (levelSpec, bool) {
	switch strings.ToLower(logLevel) {
	case "trace":
		return levelSpec{slog.LevelDebug, log.DebugLevel, true, true}, true
	case "debug":
		return levelSpec{slog.LevelDebug, log.DebugLevel, false, true}, true
	case "info", "":
		return levelSpec{slog.LevelInfo, log.InfoLevel, false, false}, true
	case "warn", "warning":
		return levelSpec{slog.LevelWarn, log.WarnLevel, false, false}, true
	case "error":
		return levelSpec{slog.LevelError, log.ErrorLevel, false, false}, true
	default:
		return levelSpec{slog.LevelInfo, log.InfoLevel, false, false}, false
	}
}

// SetupHandlerText returns a human readable handler. Debug adds timestamps and
// trace adds the caller. Unknown levels fall back to info.
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}
	spec, _ := parseLevel(logLevel)
	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: spec.timestamp,
		ReportCaller:    spec.caller,
		Level:           spec.charm,
	})
}

// SetupHandlerJSON returns a JSON handler. Trace adds the source location.
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}
	spec, _ := parseLevel(logLevel)
	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     spec.slog,
		AddSource: spec.caller,
	})
}

// New builds a logger from its configured level, format (text or json) and
// output (stderr or stdout)
func New(logLevel, format, output string) (*slog.Logger, error) {
	if _, ok := parseLevel(logLevel); !ok {
		return nil, fmt.Errorf("invalid log level %q, must be one of %v", logLevel, Levels)
	}

	var writer io.Writer
	switch strings.ToLower(output) {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		return nil, fmt.Errorf("invalid log output %q, must be stderr or stdout", output)
	}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(SetupHandlerText(logLevel, writer)), nil
	case "json":
		return slog.New(SetupHandlerJSON(logLevel, writer)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q, must be text or json", format)
	}
}
