package markup

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// marker is a span parked behind a unique placeholder while passes that
// would misread it run.
type marker struct {
	MarkerID    string // Unique placeholder: "CARDBRIDGE_CODE_1a2b3c4d"
	Feature     string // "code", "bold"
	Replacement string // Text the placeholder turns back into
}

// markers is the placeholder table of a single translation.
type markers struct {
	parked []marker
}

func newMarkers() *markers {
	return &markers{parked: make([]marker, 0)}
}

// park records replacement under a fresh placeholder and returns the
// placeholder. Placeholders contain only letters, digits and underscores so
// no pass rewrites them.
func (m *markers) park(feature, replacement string) string {
	id := fmt.Sprintf("CARDBRIDGE_%s_%s", strings.ToUpper(feature), strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	m.parked = append(m.parked, marker{
		MarkerID:    id,
		Feature:     feature,
		Replacement: replacement,
	})
	return id
}

// restore swaps every placeholder of the given feature back into content
// and forgets it.
func (m *markers) restore(content, feature string) string {
	kept := m.parked[:0]
	for _, mk := range m.parked {
		if mk.Feature != feature {
			kept = append(kept, mk)
			continue
		}
		content = strings.Replace(content, mk.MarkerID, mk.Replacement, 1)
	}
	m.parked = kept
	return content
}
