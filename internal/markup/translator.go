// Package markup translates Markdown into Jira wiki markup.
//
// Translation is a fixed, ordered pipeline of text rewrites. Each call keeps
// its own placeholder table, so a single Translator can be shared by many
// goroutines.
package markup

import (
	"strings"

	"github.com/yuin/goldmark-emoji/definition"
)

// DefaultImageWidth is the width hint attached to remapped images.
const DefaultImageWidth = 600

// MissFunc is told about lookups that found nothing. kind is "mention" or
// "attachment".
type MissFunc func(kind, key string)

// Translator converts Markdown documents to Jira wiki markup.
type Translator struct {
	lookups    Lookups
	imageWidth int
	emojis     definition.Emojis
	onMiss     MissFunc
	passes     []pass
}

// Option configures a Translator.
type Option func(*Translator)

// WithImageWidth sets the width hint attached to remapped images.
func WithImageWidth(width int) Option {
	return func(t *Translator) {
		if width > 0 {
			t.imageWidth = width
		}
	}
}

// WithEmojis replaces the GitHub emoji table.
func WithEmojis(emojis definition.Emojis) Option {
	return func(t *Translator) {
		t.emojis = emojis
	}
}

// WithMissHandler registers a callback for lookup misses. It may be called
// from several goroutines at once.
func WithMissHandler(fn MissFunc) Option {
	return func(t *Translator) {
		t.onMiss = fn
	}
}

// New creates a translator bound to the given lookups.
func New(lookups Lookups, opts ...Option) *Translator {
	t := &Translator{
		lookups:    lookups,
		imageWidth: DefaultImageWidth,
		emojis:     definition.Github(),
		passes:     defaultPasses(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate converts a document with a throwaway Translator.
func Translate(document string, lookups Lookups) (string, error) {
	return New(lookups).Translate(document)
}

// Translate converts document to Jira wiki markup. It fails with
// *UnsupportedStructureError, and returns no partial output, when the
// document contains a table.
func (t *Translator) Translate(document string) (string, error) {
	if line, text, found := findTable(document); found {
		return "", &UnsupportedStructureError{Line: line, Text: strings.TrimSpace(text)}
	}

	r := &run{t: t, markers: newMarkers()}
	content := document
	for _, p := range t.passes {
		content = p.Apply(r, content)
	}
	return r.markers.restore(content, "code"), nil
}

// Passes lists the pipeline pass names in execution order.
func (t *Translator) Passes() []string {
	names := make([]string, len(t.passes))
	for i, p := range t.passes {
		names[i] = p.Name
	}
	return names
}
