package migrate

import (
	"reflect"
	"testing"

	"github.com/gerunddev/cardbridge/internal/config"
	"github.com/gerunddev/cardbridge/internal/trello"
)

func TestIssueType(t *testing.T) {
	tests := []struct {
		labels   []string
		expected string
	}{
		{[]string{"bug"}, IssueBug},
		{[]string{"ops", "bug"}, IssueBug},
		{[]string{"ops"}, IssueSupport},
		{[]string{"ops support"}, IssueSupport},
		{[]string{"feature"}, IssueStory},
		{nil, IssueStory},
	}

	for _, tt := range tests {
		if got := IssueType(tt.labels); got != tt.expected {
			t.Errorf("IssueType(%v) = %q, want %q", tt.labels, got, tt.expected)
		}
	}
}

func TestFixVersion(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		prefix   string
		expected string
	}{
		{"none", []string{"bug"}, "v1.", ""},
		{"single", []string{"bug", "v1.2.0"}, "v1.", "v1.2.0"},
		{"last wins", []string{"v1.2.0", "ux", "v1.3.0"}, "v1.", "v1.3.0"},
		{"other major", []string{"v2.0.0"}, "v1.", ""},
		{"empty prefix", []string{"v1.2.0"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixVersion(tt.labels, tt.prefix); got != tt.expected {
				t.Errorf("FixVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	rules := config.LabelConfig{
		Rename: map[string]string{"Herts": "Hertfordshire", "ux": "user experience"},
		Drop:   []string{"WIP"},
	}
	got := Labels(
		[]string{"bug", "herts", "wip", "v1.4.0", "ux", "quick win", "herts"},
		rules, "v1.", []string{"Migrated-from-Trello"},
	)
	expected := []string{"Hertfordshire", "user-experience", "quick-win", "Migrated-from-Trello"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Labels() = %v, want %v", got, expected)
	}
}

func TestStatus(t *testing.T) {
	statuses := map[string]map[string]string{
		"Bug":     {"Doing": "In Development"},
		"default": {"Doing": "In Progress", "Done": "Closed"},
	}
	tests := []struct {
		issueType, column, expected string
	}{
		{"Bug", "Doing", "In Development"},
		{"Story", "Doing", "In Progress"},
		{"Bug", "Done", "Closed"},
		{"Story", "Icebox", "Icebox"},
	}

	for _, tt := range tests {
		if got := Status(statuses, tt.issueType, tt.column); got != tt.expected {
			t.Errorf("Status(%q, %q) = %q, want %q", tt.issueType, tt.column, got, tt.expected)
		}
	}
	if got := Status(nil, "Bug", "Backlog"); got != "Backlog" {
		t.Errorf("Status with no mapping = %q, want the column", got)
	}
}

func TestChecklistItemsEmpty(t *testing.T) {
	if got := ChecklistItems(nil); len(got) != 0 {
		t.Errorf("ChecklistItems(nil) = %v", got)
	}
	got := ChecklistItems([]trello.Checklist{{CheckItems: []trello.CheckItem{{Name: "done", State: "complete"}}}})
	if !reflect.DeepEqual(got, []string{"[x] done"}) {
		t.Errorf("ChecklistItems = %v", got)
	}
}
