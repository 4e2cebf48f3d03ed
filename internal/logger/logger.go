package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(path string) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})

	cleanup := func() {
		f.Close()
	}

	return &Logger{Logger: l}, cleanup, nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(writers ...io.Writer) *Logger {
	w := io.MultiWriter(writers...)
	return New(w)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// MigrationStarted logs the start of a migration run
func (l *Logger) MigrationStarted(board string, cards int, workers int) {
	l.Info("migration started",
		"board", board,
		"cards", cards,
		"workers", workers)
}

// MigrationCompleted logs the end of a migration run
func (l *Logger) MigrationCompleted(migrated int, failed int, skipped int, duration time.Duration) {
	l.Info("migration completed",
		"cards_migrated", migrated,
		"failures", failed,
		"skipped", skipped,
		"duration", duration.Round(time.Millisecond))
}

// CardMigrated logs a card that made it into the import file
func (l *Logger) CardMigrated(trelloID, summary, issueType string) {
	l.Info("card migrated",
		"trello_id", trelloID,
		"summary", summary,
		"issue_type", issueType)
}

// CardFailed logs a card left out of the import file
func (l *Logger) CardFailed(trelloID string, err error) {
	l.Error("card failed",
		"trello_id", trelloID,
		"error", err)
}

// FieldFallback logs a field that kept its raw value instead of failing the card
func (l *Logger) FieldFallback(trelloID, field string, err error) {
	l.Warn("field kept raw value",
		"trello_id", trelloID,
		"field", field,
		"error", err)
}

// LookupMiss logs a mention or attachment lookup with no entry
func (l *Logger) LookupMiss(kind, key string) {
	l.Debug("lookup miss",
		"kind", kind,
		"key", key)
}

// AttachmentCached logs a downloaded attachment
func (l *Logger) AttachmentCached(url, file string, size int64) {
	l.Info("attachment cached",
		"url", url,
		"file", file,
		"bytes", size)
}

// StateError logs a state-related error
func (l *Logger) StateError(operation string, err error) {
	l.Error("state error",
		"operation", operation,
		"error", err)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(board, attachmentDir string, workers int) {
	l.Debug("config loaded",
		"board", board,
		"attachment_dir", attachmentDir,
		"workers", workers)
}

// Skipped logs when a card is skipped
func (l *Logger) Skipped(trelloID, reason string) {
	l.Debug("card skipped",
		"trello_id", trelloID,
		"reason", reason)
}
