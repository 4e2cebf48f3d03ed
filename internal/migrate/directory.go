package migrate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gerunddev/cardbridge/internal/trello"
)

// Directory holds the board-wide lookups every card mapping needs.
type Directory struct {
	Lists        map[string]string // list id -> column name
	Members      []trello.Member
	CustomFields []trello.CustomField
}

// BoardSource fetches board-scope data. *trello.Client implements it.
type BoardSource interface {
	Lists(ctx context.Context, boardID string) ([]trello.List, error)
	Members(ctx context.Context, boardID string) ([]trello.Member, error)
	CustomFields(ctx context.Context, boardID string) ([]trello.CustomField, error)
}

// LoadDirectory fetches lists, members and custom fields concurrently.
func LoadDirectory(ctx context.Context, src BoardSource, boardID string) (*Directory, error) {
	var (
		lists   []trello.List
		members []trello.Member
		fields  []trello.CustomField
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lists, err = src.Lists(gctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to fetch lists: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = src.Members(gctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to fetch members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fields, err = src.CustomFields(gctx, boardID)
		if err != nil {
			return fmt.Errorf("failed to fetch custom fields: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newDirectory(lists, members, fields), nil
}

// DirectoryFromBoard builds the lookups from a board JSON export.
func DirectoryFromBoard(b *trello.Board) *Directory {
	return newDirectory(b.Lists, b.Members, b.CustomFields)
}

func newDirectory(lists []trello.List, members []trello.Member, fields []trello.CustomField) *Directory {
	d := &Directory{
		Lists:        make(map[string]string, len(lists)),
		Members:      members,
		CustomFields: fields,
	}
	for _, l := range lists {
		d.Lists[l.ID] = l.Name
	}
	return d
}

// Handles maps member usernames to member ids for mention resolution.
func (d *Directory) Handles() map[string]string {
	handles := make(map[string]string, len(d.Members))
	for _, m := range d.Members {
		handles[m.Username] = m.ID
	}
	return handles
}

// FieldOption resolves the option text chosen for the named list-typed
// custom field. The field name is matched ignoring case.
func (d *Directory) FieldOption(items []trello.CustomFieldItem, field string) (string, bool) {
	want := foldCase(field)
	for _, f := range d.CustomFields {
		if foldCase(f.Name) != want {
			continue
		}
		for _, item := range items {
			if item.IDCustomField != f.ID {
				continue
			}
			for _, opt := range f.Options {
				if opt.ID == item.IDValue {
					return opt.Value["text"], true
				}
			}
			if text, ok := item.Value["text"]; ok {
				return text, true
			}
		}
		return "", false
	}
	return "", false
}
