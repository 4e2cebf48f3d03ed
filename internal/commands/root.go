// Package commands wires the cardbridge CLI.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gerunddev/cardbridge/internal/config"
	"github.com/gerunddev/cardbridge/internal/logger"
	"github.com/gerunddev/cardbridge/internal/styles"
)

// Version is the released version, set at build time.
var Version = "0.1.0"

// app holds what every subcommand shares once the root has run.
type app struct {
	verbose bool
	cfg     *config.Config
	log     *logger.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cardbridge",
		Short: "Migrate Trello cards into a Jira CSV import",
		Long: `cardbridge translates Trello card markdown into Jira wiki markup and
builds a Jira CSV import file from a Trello board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newTranslateCmd(a),
		newSectionCmd(a),
		newPreviewCmd(a),
		newMigrateCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

// setup loads the configuration and the stderr logger.
func (a *app) setup(stderr io.Writer) error {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.log = logger.NewWithLevel(stderr, level)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", config.ConfigPath(), err)
	}
	a.cfg = cfg
	a.log.ConfigLoaded(cfg.Trello.BoardID, cfg.Attachments.Dir, cfg.Workers)
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cardbridge v%s\n", Version)
		},
	}
}
