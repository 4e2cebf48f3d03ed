// Package jiracsv writes issues in the layout of the Jira CSV importer.
//
// The importer reads multi-valued fields from repeated columns with the same
// header, so a row with three labels needs three "Labels" columns. Every
// multi-valued field gets as many columns as its widest row and shorter rows
// are padded with empty cells.
package jiracsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gerunddev/cardbridge/internal/migrate"
)

// Single-valued columns, in output order.
var scalarColumns = []string{
	"Summary",
	"Issue Type",
	"Status",
	"Description",
	"Severity",
	"Assignee",
	"Reporter",
	"Created",
	"Fix Version",
	"Trello ID",
}

type multiColumn struct {
	header string
	values func(migrate.Issue) []string
}

// Multi-valued columns, in output order.
var multiColumns = []multiColumn{
	{"Labels", func(i migrate.Issue) []string { return i.Labels }},
	{"Collaborator", func(i migrate.Issue) []string { return i.Collaborators }},
	{"Comment", func(i migrate.Issue) []string { return i.Comments }},
	{"Attachment", func(i migrate.Issue) []string { return i.Attachments }},
	{"Checklist", func(i migrate.Issue) []string { return i.ChecklistItems }},
}

func scalars(i migrate.Issue) []string {
	created := ""
	if !i.Created.IsZero() {
		created = i.Created.Format(migrate.CommentTimeLayout)
	}
	return []string{
		i.Summary,
		i.IssueType,
		i.Status,
		i.Description,
		i.Severity,
		i.Assignee,
		i.Reporter,
		created,
		i.FixVersion,
		i.TrelloID,
	}
}

// sectionColumns returns the section column names used by any issue.
func sectionColumns(issues []migrate.Issue) []string {
	seen := map[string]bool{}
	var cols []string
	for _, i := range issues {
		for col := range i.Sections {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// Header returns the header row for the given issues.
func Header(issues []migrate.Issue) []string {
	header := append([]string{}, scalarColumns...)
	header = append(header, sectionColumns(issues)...)
	for _, mc := range multiColumns {
		for n := width(issues, mc); n > 0; n-- {
			header = append(header, mc.header)
		}
	}
	return header
}

func width(issues []migrate.Issue, mc multiColumn) int {
	w := 0
	for _, i := range issues {
		w = max(w, len(mc.values(i)))
	}
	return w
}

// Rows returns one padded record per issue, aligned with Header.
func Rows(issues []migrate.Issue) [][]string {
	sections := sectionColumns(issues)
	widths := make([]int, len(multiColumns))
	for k, mc := range multiColumns {
		widths[k] = width(issues, mc)
	}

	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		row := scalars(i)
		for _, col := range sections {
			row = append(row, i.Sections[col])
		}
		for k, mc := range multiColumns {
			values := mc.values(i)
			row = append(row, values...)
			for pad := len(values); pad < widths[k]; pad++ {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Write writes the header and one row per issue.
func Write(w io.Writer, issues []migrate.Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(issues)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(Rows(issues)); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// WriteFile writes the import file at path, creating parent directories.
func WriteFile(path string, issues []migrate.Issue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, issues); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
