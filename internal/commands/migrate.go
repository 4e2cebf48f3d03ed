package commands

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gerunddev/cardbridge/internal/attachments"
	"github.com/gerunddev/cardbridge/internal/jiracsv"
	"github.com/gerunddev/cardbridge/internal/logger"
	"github.com/gerunddev/cardbridge/internal/migrate"
	"github.com/gerunddev/cardbridge/internal/state"
	"github.com/gerunddev/cardbridge/internal/styles"
	"github.com/gerunddev/cardbridge/internal/trello"
	"github.com/gerunddev/cardbridge/internal/tui"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		output        string
		cards         []int
		incremental   bool
		noAttachments bool
		workers       int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Build a Jira CSV import from the configured Trello board",
		Long: `Fetch every open card of the configured board, translate it and write a
Jira CSV import file. Uploaded attachments are cached locally so the
attachment server can serve them to the importer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireTrello(); err != nil {
				return err
			}
			if workers > 0 {
				a.cfg.Workers = workers
			}

			opts := []migrate.Option{
				migrate.WithShortIDs(cards),
				migrate.WithIncremental(incremental),
			}
			return a.runMigration(cmd, output, noAttachments, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "jira-import.csv", "Path of the CSV import file")
	cmd.Flags().IntSliceVar(&cards, "cards", nil, "Only migrate cards with these short ids")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Leave out cards unchanged since the last run")
	cmd.Flags().BoolVar(&noAttachments, "no-attachments", false, "Keep remote attachment URLs instead of caching them")
	cmd.Flags().IntVar(&workers, "workers", 0, "Cards processed concurrently (default from config)")
	return cmd
}

func (a *app) runMigration(cmd *cobra.Command, output string, noAttachments bool, opts []migrate.Option) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := a.cfg
	interactive := isTerminal(cmd.OutOrStdout())

	// The progress UI owns the terminal, so logs go to the log file only.
	log := a.log
	if interactive && cfg.LogFile != "" {
		fileLog, cleanup, err := logger.NewFileLogger(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer cleanup()
		log = fileLog
	}

	st, err := state.Load(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	client := trello.NewClient(cfg.Trello.APIKey, cfg.Trello.Token,
		trello.WithBaseURL(cfg.Trello.BaseURL),
		trello.WithTimeout(cfg.Trello.Timeout))

	dir, err := migrate.LoadDirectory(ctx, client, cfg.Trello.BoardID)
	if err != nil {
		return err
	}
	cards, err := client.Cards(ctx, cfg.Trello.BoardID)
	if err != nil {
		return fmt.Errorf("failed to fetch cards: %w", err)
	}

	var files migrate.Files
	if !noAttachments {
		files = attachments.NewCache(cfg.Attachments.Dir, cfg.Attachments.BaseURL, cfg.Attachments.Exclude, st, client, log)
	}

	var result *migrate.Result
	if interactive {
		result, err = runWithProgress(ctx, cfg.Trello.BoardID, func(ctx context.Context, progress func(migrate.Progress)) (*migrate.Result, error) {
			m := migrate.New(cfg, dir, client, files, st, log, append(opts, migrate.WithProgress(progress))...)
			return m.Run(ctx, cards)
		})
	} else {
		result, err = migrate.New(cfg, dir, client, files, st, log, opts...).Run(ctx, cards)
	}

	// Attachments cached so far stay recorded even when the run stopped early.
	if saveErr := st.Save(cfg.StateFile); saveErr != nil {
		log.StateError("save", saveErr)
	}
	if err != nil {
		return err
	}

	if err := jiracsv.WriteFile(output, result.Issues); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !interactive {
		fmt.Fprint(out, tui.Summary(result))
	}
	fmt.Fprintln(out, styles.DimStyle.Render("Wrote "+output))
	if !noAttachments && len(result.Issues) > 0 {
		fmt.Fprintln(out, styles.DimStyle.Render("Run 'cardbridge serve' while Jira imports the attachments"))
	}
	return nil
}

// runWithProgress runs fn while a spinner reports its progress. Quitting
// the UI cancels the run.
func runWithProgress(ctx context.Context, board string, fn func(context.Context, func(migrate.Progress)) (*migrate.Result, error)) (*migrate.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.InitMigrateModel(board), tea.WithInput(os.Stdin))

	type outcome struct {
		result *migrate.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := fn(ctx, func(pr migrate.Progress) {
			p.Send(tui.ProgressMsg(pr))
		})
		done <- outcome{result, err}
		p.Send(tui.DoneMsg{Result: result, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	// The UI also returns when the user quits early
	cancel()
	o := <-done
	return o.result, o.err
}
