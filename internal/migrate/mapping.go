package migrate

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/gerunddev/cardbridge/internal/config"
)

// Casers are stateful and must not be shared between goroutines.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Issue types assigned from card labels.
const (
	IssueBug     = "Bug"
	IssueSupport = "Support"
	IssueStory   = "Story"
)

// IssueType classifies a card by its lower-cased labels.
func IssueType(labels []string) string {
	switch {
	case slices.Contains(labels, "bug"):
		return IssueBug
	case slices.Contains(labels, "ops"), slices.Contains(labels, "ops support"):
		return IssueSupport
	default:
		return IssueStory
	}
}

// FixVersion returns the last label carrying the version prefix.
func FixVersion(labels []string, prefix string) string {
	version := ""
	if prefix == "" {
		return version
	}
	for _, l := range labels {
		if strings.HasPrefix(l, prefix) {
			version = l
		}
	}
	return version
}

// Labels turns card labels into Jira labels. Classification and version
// labels are dropped since they live in their own columns. Jira labels cannot
// contain spaces.
func Labels(labels []string, rules config.LabelConfig, versionPrefix string, extra []string) []string {
	rename := make(map[string]string, len(rules.Rename))
	for from, to := range rules.Rename {
		rename[foldCase(from)] = to
	}
	drop := map[string]bool{"bug": true, "ops": true, "ops support": true}
	for _, d := range rules.Drop {
		drop[foldCase(d)] = true
	}

	out := make([]string, 0, len(labels)+len(extra))
	seen := map[string]bool{}
	add := func(l string) {
		l = strings.Join(strings.Fields(l), "-")
		if l == "" || seen[l] {
			return
		}
		seen[l] = true
		out = append(out, l)
	}

	for _, l := range labels {
		key := foldCase(l)
		if drop[key] || (versionPrefix != "" && strings.HasPrefix(l, versionPrefix)) {
			continue
		}
		if to, ok := rename[key]; ok {
			l = to
		}
		add(l)
	}
	for _, l := range extra {
		add(l)
	}
	return out
}

// Status maps a column to a Jira status: the issue type's mapping first,
// then the "default" mapping, else the column name itself.
func Status(statuses map[string]map[string]string, issueType, column string) string {
	if s, ok := statuses[issueType][column]; ok {
		return s
	}
	if s, ok := statuses["default"][column]; ok {
		return s
	}
	return column
}
