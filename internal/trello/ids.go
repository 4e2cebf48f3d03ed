package trello

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers are stateful and must not be shared between goroutines.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// CreatedAt decodes the creation time embedded in a Trello object ID: the
// first eight hex digits are a Unix timestamp.
func CreatedAt(id string) (time.Time, error) {
	if len(id) < 8 {
		return time.Time{}, fmt.Errorf("id %q is too short to carry a timestamp", id)
	}
	secs, err := strconv.ParseInt(id[:8], 16, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("id %q does not start with a hex timestamp: %w", id, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// LoadBoard reads a board JSON export.
func LoadBoard(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board export: %w", err)
	}

	var board Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("failed to parse board export: %w", err)
	}
	return &board, nil
}
