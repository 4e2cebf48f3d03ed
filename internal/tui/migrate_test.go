package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/gerunddev/cardbridge/internal/migrate"
)

func TestMigrateModelProgress(t *testing.T) {
	m := InitMigrateModel("b0ard")

	if view := m.View(); !strings.Contains(view, "Migrating b0ard") {
		t.Errorf("initial view missing board: %q", view)
	}

	updated, cmd := m.Update(ProgressMsg{Done: 2, Total: 5, Card: "Crash on save"})
	if cmd != nil {
		t.Error("progress should not schedule a command")
	}
	m = updated.(migrateModel)
	updated, _ = m.Update(ProgressMsg{Done: 3, Total: 5, Card: "Slow search", Err: errors.New("boom")})
	m = updated.(migrateModel)

	view := m.View()
	for _, want := range []string{"3/5", "(1 failed)", "Slow search"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q: %q", want, view)
		}
	}
}

func TestMigrateModelDone(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := &migrate.Result{
		Issues:    make([]migrate.Issue, 4),
		Skipped:   2,
		Failures:  []migrate.Failure{{TrelloID: "TRELLO-3", Name: "Table card", Err: errors.New("tables in markdown are not supported")}},
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
	}

	updated, cmd := InitMigrateModel("b0ard").Update(DoneMsg{Result: result})
	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should return tea.Quit")
	}

	view := updated.View()
	for _, want := range []string{"Migrated 4 card(s)", "2 skipped", "1 failed", "TRELLO-3", "Table card", "Completed in 1.5s"} {
		if !strings.Contains(view, want) {
			t.Errorf("summary missing %q:\n%s", want, view)
		}
	}
}

func TestMigrateModelError(t *testing.T) {
	updated, _ := InitMigrateModel("b0ard").Update(DoneMsg{Err: errors.New("context canceled")})
	if view := updated.View(); !strings.Contains(view, "Migration failed: context canceled") {
		t.Errorf("unexpected view: %q", view)
	}
}

func TestMigrateModelQuitKey(t *testing.T) {
	_, cmd := InitMigrateModel("b0ard").Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestSummaryCapsFailures(t *testing.T) {
	result := &migrate.Result{}
	for i := 0; i < maxListedFailures+3; i++ {
		result.Failures = append(result.Failures, migrate.Failure{TrelloID: "T", Name: "n", Err: errors.New("e")})
	}
	if out := Summary(result); !strings.Contains(out, "and 3 more") {
		t.Errorf("expected the failure list to be capped:\n%s", out)
	}
}

func TestTruncateName(t *testing.T) {
	if got := TruncateName("short", 10); got != "short" {
		t.Errorf("short names are kept, got %q", got)
	}

	for _, name := range []string{
		strings.Repeat("a", 60),
		strings.Repeat("漢", 40),
	} {
		got := TruncateName(name, 20)
		if w := runewidth.StringWidth(got); w > 20 {
			t.Errorf("TruncateName(%q) has width %d", name, w)
		}
		if got == name {
			t.Errorf("TruncateName(%q) did not truncate", name)
		}
	}
}
