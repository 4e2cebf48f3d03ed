// Package report lists open cards carrying a label, read from a board
// export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gerunddev/cardbridge/internal/migrate"
	"github.com/gerunddev/cardbridge/internal/trello"
)

// DefaultLabel selects bug cards.
const DefaultLabel = "bug"

// Fallbacks for cards without a severity or with an unknown list.
const (
	SeverityNotSet = "Not set"
	UnknownList    = "Unknown"
)

// Header is the CSV header of a report.
var Header = []string{"id", "name", "description", "severity", "list", "url"}

// Row is one reported card.
type Row struct {
	ID          int
	Name        string
	Description string
	Severity    string
	List        string
	URL         string
}

func (r Row) record() []string {
	return []string{strconv.Itoa(r.ID), r.Name, r.Description, r.Severity, r.List, r.URL}
}

// Select returns the open cards carrying label, in board order.
func Select(board *trello.Board, label string) []Row {
	dir := migrate.DirectoryFromBoard(board)

	var rows []Row
	for _, card := range board.Cards {
		if card.Closed || !card.HasLabel(label) {
			continue
		}

		severity, ok := dir.FieldOption(card.CustomFieldItems, "severity")
		if !ok || severity == "" {
			severity = SeverityNotSet
		}
		list, ok := dir.Lists[card.IDList]
		if !ok {
			list = UnknownList
		}

		rows = append(rows, Row{
			ID:          card.IDShort,
			Name:        card.Name,
			Description: card.Desc,
			Severity:    severity,
			List:        list,
			URL:         card.ShortURL,
		})
	}
	return rows
}

// Write writes rows as CSV with a header line.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("failed to write card %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
