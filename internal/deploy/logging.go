// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tripleo/tripleo-containers/internal/issue"

	"github.com/charmbracelet/log"
)

// Verbosity levels accepted in LogConfig.Level.
const (
	LevelError   = 0
	LevelWarning = 1
	LevelInfo    = 2
	LevelDebug   = 3
)

// LogConfig selects where and how verbosely one operation logs.
// An empty File discards the log.
type LogConfig struct {
	Level int
	File  string
}

// Logger builds a logger for one call. The returned closer releases the log file.
func (c LogConfig) Logger(prefix string) (*log.Logger, io.Closer, error) {
	var (
		w      io.Writer = io.Discard
		closer io.Closer = io.NopCloser(nil)
	)
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o750); err != nil {
			return nil, nil, logFileError(c.File, err)
		}
		f, err := os.OpenFile(c.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
		if err != nil {
			return nil, nil, logFileError(c.File, err)
		}
		w, closer = f, f
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           c.charmLevel(),
		ReportTimestamp: true,
	})
	return logger, closer, nil
}

func (c LogConfig) charmLevel() log.Level {
	switch {
	case c.Level >= LevelDebug:
		return log.DebugLevel
	case c.Level == LevelInfo:
		return log.InfoLevel
	case c.Level == LevelWarning:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

func logFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("open log file").
		WithResource(path).
		WithIssue(issue.LogFileUnwritableId).
		Wrap(fmt.Errorf("append to log: %w", err)).
		BuildError()
}
