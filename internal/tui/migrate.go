package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/gerunddev/cardbridge/internal/migrate"
	"github.com/gerunddev/cardbridge/internal/styles"
)

// cardNameWidth bounds the card name shown next to the spinner.
const cardNameWidth = 48

// maxListedFailures bounds the failures printed in the final view.
const maxListedFailures = 10

// ProgressMsg is sent after each card finishes
type ProgressMsg migrate.Progress

// DoneMsg is sent when the migration run returns
type DoneMsg struct {
	Result *migrate.Result
	Err    error
}

// migrateModel is the Bubble Tea model for the migration progress display
type migrateModel struct {
	spinner  spinner.Model
	board    string
	done     int
	total    int
	failed   int
	current  string
	complete bool
	result   *migrate.Result
	err      error
}

// InitMigrateModel creates a new migration progress model
func InitMigrateModel(board string) migrateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return migrateModel{
		spinner: s,
		board:   board,
	}
}

func (m migrateModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m migrateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case ProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.current = msg.Card
		if msg.Err != nil {
			m.failed++
		}
		return m, nil

	case DoneMsg:
		m.complete = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m migrateModel) View() string {
	if m.complete {
		return m.summary()
	}

	status := fmt.Sprintf("Migrating %s", m.board)
	if m.total > 0 {
		status = fmt.Sprintf("Migrating %s %d/%d", m.board, m.done, m.total)
	}
	if m.failed > 0 {
		status += " " + styles.ErrorStyle.Render(fmt.Sprintf("(%d failed)", m.failed))
	}

	line := fmt.Sprintf("\n%s %s\n", m.spinner.View(), status)
	if m.current != "" {
		line += "  " + styles.DimStyle.Render(TruncateName(m.current, cardNameWidth)) + "\n"
	}
	return line + "\n" + styles.HelpStyle.Render("q: quit") + "\n"
}

func (m migrateModel) summary() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("✗ Migration failed: "+m.err.Error()) + "\n"
	}
	return Summary(m.result)
}

// Summary renders a finished migration result.
func Summary(r *migrate.Result) string {
	var b strings.Builder

	b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Migrated %d card(s)", len(r.Issues))))
	if r.Skipped > 0 {
		b.WriteString(", " + styles.DimStyle.Render(fmt.Sprintf("%d skipped", r.Skipped)))
	}
	if len(r.Failures) > 0 {
		b.WriteString(", " + styles.ErrorStyle.Render(fmt.Sprintf("%d failed", len(r.Failures))))
	}
	b.WriteString("\n")

	for i, f := range r.Failures {
		if i == maxListedFailures {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", len(r.Failures)-i)) + "\n")
			break
		}
		b.WriteString("  " + styles.KeyStyle.Render(f.TrelloID) + " " +
			TruncateName(f.Name, cardNameWidth) + ": " +
			styles.ErrorStyle.Render(f.Err.Error()) + "\n")
	}

	duration := r.EndTime.Sub(r.StartTime).Round(time.Millisecond)
	b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("Completed in %v", duration)) + "\n")
	return b.String()
}

// TruncateName shortens s to at most width terminal cells.
func TruncateName(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
