// Package diff shows what a translation changes, as a rendered unified diff.
package diff

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/cardbridge/internal/markup"
)

// DefaultWidth is the word wrap of rendered previews.
const DefaultWidth = 120

// Unified returns a unified diff turning from into to. Identical inputs
// give an empty string.
func Unified(fromName, toName, from, to string) string {
	edits := myers.ComputeEdits(span.URIFromPath(fromName), from, to)
	return fmt.Sprint(gotextdiff.ToUnified(fromName, toName, from, edits))
}

// Fence wraps a unified diff in a markdown diff code fence.
func Fence(unified string) string {
	return fmt.Sprintf("```diff\n%s```\n", unified)
}

// Render renders a fenced diff for the terminal. When glamour cannot
// render, the fenced text is returned as is.
func Render(fenced string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fenced
	}

	rendered, err := renderer.Render(fenced)
	if err != nil {
		return fenced
	}
	return rendered
}

// Preview translates a markdown document and diffs it against the result.
// With plain set the fenced diff is returned without terminal styling.
func Preview(name, markdown string, tr *markup.Translator, plain bool) (string, error) {
	jira, err := tr.Translate(markdown)
	if err != nil {
		return "", err
	}

	unified := Unified(name, name+".jira", ensureNewline(markdown), ensureNewline(jira))
	if unified == "" {
		return "", nil
	}

	fenced := Fence(unified)
	if plain {
		return fenced, nil
	}
	return Render(fenced, DefaultWidth), nil
}

// ensureNewline keeps the diff free of "no newline at end of file" noise.
func ensureNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
