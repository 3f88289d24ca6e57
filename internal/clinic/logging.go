package clinic

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger opens the log file named by the config. The TUI owns the
// terminal, so diagnostics never go to stdout. An empty LogFile disables
// logging.
func NewLogger(config *Config) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid VET_LOG_LEVEL %q: %w", config.LogLevel, err)
	}

	if config.LogFile == "" {
		return log.New(io.Discard), nopCloser{}, nil
	}

	path := config.LogFile
	if !filepath.IsAbs(path) && config.Path != "" {
		path = filepath.Join(filepath.Dir(config.Path), path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "vet-cli",
	})
	return logger, f, nil
}
