package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/cardbridge/internal/trello"
)

func TestSelectBugs(t *testing.T) {
	board, err := trello.LoadBoard("testdata/board.json")
	require.NoError(t, err)

	rows := Select(board, DefaultLabel)

	expected := []Row{
		{ID: 1, Name: "Crash on save", Description: "Saving **fails**", Severity: "High", List: "Backlog", URL: "https://trello.com/c/aaa"},
		{ID: 2, Name: "Slow search", Description: "", Severity: SeverityNotSet, List: UnknownList, URL: "https://trello.com/c/bbb"},
	}
	assert.Equal(t, expected, rows)
}

func TestSelectOtherLabel(t *testing.T) {
	board, err := trello.LoadBoard("testdata/board.json")
	require.NoError(t, err)

	rows := Select(board, "FEATURE")
	require.Len(t, rows, 1)
	assert.Equal(t, "Dark mode", rows[0].Name)
	assert.Equal(t, "In Progress", rows[0].List)

	assert.Empty(t, Select(board, "nothing"))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{ID: 7, Name: "Crash, again", Description: "line one\nline two", Severity: "Low", List: "Done", URL: "https://trello.com/c/x"},
	}
	require.NoError(t, Write(&buf, rows))

	expected := "id,name,description,severity,list,url\n" +
		"7,\"Crash, again\",\"line one\nline two\",Low,Done,https://trello.com/c/x\n"
	assert.Equal(t, expected, buf.String())
}
