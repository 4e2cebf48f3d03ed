package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gerunddev/cardbridge/internal/attachments"
	"github.com/gerunddev/cardbridge/internal/markup"
	"github.com/gerunddev/cardbridge/internal/migrate"
	"github.com/gerunddev/cardbridge/internal/state"
	"github.com/gerunddev/cardbridge/internal/trello"
)

// readInput reads the document named by the first argument, or standard
// input when there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "stdin", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return filepath.Base(args[0]), string(data), nil
}

// writeOutput writes content to path, or to standard output when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" || path == "-" {
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// translatorOptions select the lookups of an offline translation.
type translatorOptions struct {
	boardExport string
	localImages bool
	imageWidth  int
}

func (o *translatorOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.boardExport, "board", "", "Board JSON export used to resolve @mentions")
	cmd.Flags().BoolVar(&o.localImages, "local-images", false, "Point images at already cached attachments")
	cmd.Flags().IntVar(&o.imageWidth, "image-width", 0, "Width of embedded images (default from config)")
}

// translator builds a translator from the config member map, plus member
// handles from a board export and the attachment manifest when asked for.
func (a *app) translator(o translatorOptions) (*markup.Translator, error) {
	lookups := markup.Lookups{ShortCodes: markup.ShortCodeMap(a.cfg.Members)}

	if o.boardExport != "" {
		board, err := trello.LoadBoard(o.boardExport)
		if err != nil {
			return nil, err
		}
		lookups.Members = markup.MemberMap(migrate.DirectoryFromBoard(board).Handles())
	}

	if o.localImages {
		st, err := state.Load(a.cfg.StateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		lookups.Attachments = attachments.NewCache(a.cfg.Attachments.Dir, a.cfg.Attachments.BaseURL, nil, st, nil, a.log)
	}

	width := o.imageWidth
	if width <= 0 {
		width = a.cfg.Attachments.ImageWidth
	}

	return markup.New(lookups,
		markup.WithImageWidth(width),
		markup.WithMissHandler(a.log.LookupMiss)), nil
}
