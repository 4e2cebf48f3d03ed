package commands

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/cardbridge/internal/config"
	"github.com/gerunddev/cardbridge/internal/daemon"
	"github.com/gerunddev/cardbridge/internal/markup"
)

// useConfig points the CLI at a temp config file holding content. An empty
// content leaves the file missing so defaults apply.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}

	origConfig := config.ConfigPath
	origState := config.StateFilePath
	config.ConfigPath = func() string { return path }
	config.StateFilePath = func() string { return filepath.Join(dir, "state.json") }
	t.Cleanup(func() {
		config.ConfigPath = origConfig
		config.StateFilePath = origState
	})
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	useConfig(t, "")
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "cardbridge v"+Version+"\n", out)
}

func TestTranslateStdin(t *testing.T) {
	useConfig(t, "")
	out, _, err := run(t, "# Title\n**bold** and *it*", "translate")
	require.NoError(t, err)
	assert.Equal(t, "h1. Title\n*bold* and _it_\n", out)
}

func TestTranslateFileWithBoardMentions(t *testing.T) {
	useConfig(t, "members:\n  m1: asmith\n")
	dir := t.TempDir()

	board := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(board, []byte(`{"members":[{"id":"m1","username":"alice"}]}`), 0644))
	doc := filepath.Join(dir, "card.md")
	require.NoError(t, os.WriteFile(doc, []byte("ping @alice and @bob\n"), 0644))
	outPath := filepath.Join(dir, "out", "card.jira")

	_, _, err := run(t, "", "translate", doc, "--board", board, "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "ping [~asmith] and @bob\n", string(data))
}

func TestTranslateRejectsTable(t *testing.T) {
	useConfig(t, "")
	_, _, err := run(t, "intro\n| a | b |\n", "translate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, markup.ErrUnsupportedStructure))
	assert.Contains(t, err.Error(), "line 2")
}

func TestSection(t *testing.T) {
	useConfig(t, "")
	doc := "# Bug\nIt crashes.\n## Workaround\nRestart **twice**.\n## Notes\nnone"

	out, _, err := run(t, doc, "section", "workaround")
	require.NoError(t, err)
	assert.Equal(t, "Restart **twice**.\n", out)

	out, _, err = run(t, doc, "section", "WORKAROUND", "--jira")
	require.NoError(t, err)
	assert.Equal(t, "Restart *twice*.\n", out)

	_, _, err = run(t, doc, "section", "missing")
	assert.EqualError(t, err, `no heading matching "missing"`)
}

func TestPreviewPlainWhenPiped(t *testing.T) {
	useConfig(t, "")
	out, _, err := run(t, "~~old~~ text\n", "preview")
	require.NoError(t, err)
	assert.Contains(t, out, "```diff")
	assert.Contains(t, out, "-~~old~~ text")
	assert.Contains(t, out, "+-old- text")

	out, _, err = run(t, "plain\n", "preview")
	require.NoError(t, err)
	assert.Equal(t, "No changes\n", out)
}

func TestReport(t *testing.T) {
	useConfig(t, "")
	board := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(board, []byte(`{
		"name": "Product",
		"lists": [{"id": "l1", "name": "Backlog"}],
		"cards": [
			{"idShort": 1, "name": "Crash", "idList": "l1", "shortUrl": "u1", "labels": [{"name": "Bug"}]},
			{"idShort": 2, "name": "Idea", "idList": "l1", "shortUrl": "u2", "labels": [{"name": "Feature"}]}
		]
	}`), 0644))

	out, _, err := run(t, "", "report", board)
	require.NoError(t, err)
	assert.Equal(t, "id,name,description,severity,list,url\n1,Crash,,Not set,Backlog,u1\n", out)
}

func TestInvalidConfig(t *testing.T) {
	useConfig(t, "workers: 0\n")
	_, _, err := run(t, "", "translate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers must be positive")
}

func TestMigrateRequiresCredentials(t *testing.T) {
	useConfig(t, "")
	t.Setenv("TRELLO_API_KEY", "")
	t.Setenv("TRELLO_TOKEN", "")
	_, _, err := run(t, "", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key and token are required")
}

func TestServeStatusNotRunning(t *testing.T) {
	useConfig(t, "")
	orig := daemon.PIDFile
	daemon.PIDFile = func() string { return filepath.Join(t.TempDir(), "serve.pid") }
	t.Cleanup(func() { daemon.PIDFile = orig })

	out, _, err := run(t, "", "serve", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is not running")

	out, _, err = run(t, "", "serve", "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is not running")
}

func TestMigrateEndToEnd(t *testing.T) {
	const cardID = "5f1a2b3c0000000000000001"
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/shot.png" && r.URL.Query().Get("token") != "t0ken" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/boards/b0ard/lists":
			fmt.Fprint(w, `[{"id":"l1","name":"Backlog"}]`)
		case r.URL.Path == "/boards/b0ard/members":
			fmt.Fprint(w, `[{"id":"m1","username":"alice"}]`)
		case r.URL.Path == "/boards/b0ard/customFields":
			fmt.Fprint(w, `[]`)
		case r.URL.Path == "/boards/b0ard/cards":
			fmt.Fprintf(w, `[
				{"id":%q,"idShort":1,"name":"Crash","idList":"l1","idMembers":["m1"],
				 "desc":"Hello **world** @alice\n\n![shot](%s/files/shot.png)","labels":[{"name":"bug"}]},
				{"id":"5f1a2b3c0000000000000002","idShort":2,"name":"Old","closed":true}
			]`, cardID, srvURL)
		case strings.HasSuffix(r.URL.Path, "/actions"):
			if r.URL.Query().Get("filter") == "commentCard" {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, `[{"memberCreator":{"id":"m1","username":"alice"}}]`)
		case strings.HasSuffix(r.URL.Path, "/attachments"):
			fmt.Fprintf(w, `[{"id":"a1","fileName":"shot.png","url":"%s/files/shot.png","isUpload":true}]`, srvURL)
		case strings.HasSuffix(r.URL.Path, "/checklists"), strings.HasSuffix(r.URL.Path, "/customFieldItems"):
			fmt.Fprint(w, `[]`)
		case r.URL.Path == "/files/shot.png":
			fmt.Fprint(w, "PNG")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	base := t.TempDir()
	dir := useConfig(t, fmt.Sprintf(`
trello:
  api_key: k3y
  token: t0ken
  board_id: b0ard
  base_url: %s
  timeout: 5s
members:
  m1: asmith
attachments:
  dir: %s
workers: 2
state_file: %s
`, srv.URL, filepath.Join(base, "attachments"), filepath.Join(base, "state.json")))
	t.Setenv("TRELLO_API_KEY", "")
	t.Setenv("TRELLO_TOKEN", "")
	t.Setenv("TRELLO_BOARD_ID", "")
	t.Setenv("ATTACHMENT_DIRECTORY", "")
	t.Setenv("ATTACHMENT_BASE_URL", "")

	output := filepath.Join(dir, "import.csv")
	out, _, err := run(t, "", "migrate", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated 1 card(s)")
	assert.Contains(t, out, "1 skipped")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	row := map[string]string{}
	for i, h := range records[0] {
		if _, seen := row[h]; !seen {
			row[h] = records[1][i]
		}
	}
	assert.Equal(t, "Crash", row["Summary"])
	assert.Equal(t, "Bug", row["Issue Type"])
	assert.Equal(t, "TRELLO-1", row["Trello ID"])
	assert.Equal(t, "asmith", row["Assignee"])
	assert.Equal(t, "asmith", row["Reporter"])
	assert.Equal(t, "Hello *world* [~asmith]\n\n!http://localhost:3000/a1-shot.png|alt=shot, width=600!", row["Description"])
	assert.Equal(t, "http://localhost:3000/a1-shot.png", row["Attachment"])

	data, err := os.ReadFile(filepath.Join(base, "attachments", "a1-shot.png"))
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(data))
	assert.FileExists(t, filepath.Join(base, "state.json"))
}
