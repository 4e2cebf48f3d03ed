package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/cardbridge/internal/diff"
	"github.com/gerunddev/cardbridge/internal/markup"
)

func newTranslateCmd(a *app) *cobra.Command {
	var (
		output string
		opts   translatorOptions
	)

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate markdown to Jira wiki markup",
		Long: `Translate a markdown document to Jira wiki markup. Reads standard input
when no file is given. Documents containing tables are rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			tr, err := a.translator(opts)
			if err != nil {
				return err
			}

			out, err := tr.Translate(doc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of standard output")
	opts.register(cmd)
	return cmd
}

func newSectionCmd(a *app) *cobra.Command {
	var (
		jira bool
		opts translatorOptions
	)

	cmd := &cobra.Command{
		Use:   "section <heading> [file]",
		Short: "Print the body of the first heading matching a name",
		Long: `Print the content under the first heading whose text contains the given
name, ignoring case, up to the next heading of the same or a higher level.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}

			section, ok := markup.ExtractSection(doc, args[0])
			if !ok {
				return fmt.Errorf("no heading matching %q", args[0])
			}

			if jira {
				tr, err := a.translator(opts)
				if err != nil {
					return err
				}
				if section, err = tr.Translate(section); err != nil {
					return err
				}
			}
			return writeOutput(cmd, "", section)
		},
	}

	cmd.Flags().BoolVar(&jira, "jira", false, "Translate the section to Jira wiki markup")
	opts.register(cmd)
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		plain bool
		opts  translatorOptions
	)

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Show a diff of a document against its Jira rendering",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, doc, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			tr, err := a.translator(opts)
			if err != nil {
				return err
			}

			out, err := diff.Preview(name, doc, tr, plain || !isTerminal(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print the fenced diff without terminal styling")
	opts.register(cmd)
	return cmd
}
