// Package attachments keeps a local copy of card attachments and serves it
// over HTTP so imported issues can embed them.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gerunddev/cardbridge/internal/logger"
	"github.com/gerunddev/cardbridge/internal/state"
	"github.com/gerunddev/cardbridge/internal/trello"
)

// ErrExcluded is returned by Fetch for attachments matching an exclude glob.
var ErrExcluded = errors.New("attachment excluded")

// Downloader streams a remote file. *trello.Client implements it.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Cache downloads uploaded attachments once and remaps their URLs to the
// local server.
type Cache struct {
	dir     string
	baseURL string
	exclude []string
	state   *state.State
	dl      Downloader
	logger  *logger.Logger
}

// NewCache creates a cache storing files in dir. Files are later served
// under baseURL.
func NewCache(dir, baseURL string, exclude []string, st *state.State, dl Downloader, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Discard()
	}
	return &Cache{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		exclude: exclude,
		state:   st,
		dl:      dl,
		logger:  log,
	}
}

// FileName is the local name of an attachment: its id, a dash, and the
// sanitised original name.
func FileName(att trello.Attachment) string {
	name := att.FileName
	if name == "" {
		name = att.Name
	}
	if name == "" {
		name = path.Base(att.URL)
	}
	return att.ID + "-" + sanitize(name)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Excluded reports whether the attachment's name matches an exclude glob.
func (c *Cache) Excluded(att trello.Attachment) bool {
	name := att.FileName
	if name == "" {
		name = att.Name
	}
	for _, pattern := range c.exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Fetch makes sure the attachment is present in the cache and returns its
// local file name. Files already cached with a matching hash are not
// downloaded again.
func (c *Cache) Fetch(ctx context.Context, att trello.Attachment) (string, error) {
	if c.Excluded(att) {
		return "", ErrExcluded
	}

	name := FileName(att)
	target := filepath.Join(c.dir, name)

	changed, err := c.state.HasChanged(att.URL, target)
	if err != nil {
		return "", fmt.Errorf("failed to check cached %s: %w", name, err)
	}
	if !changed {
		return name, nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create attachment directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := c.dl.Download(ctx, att.URL, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	if err := c.state.UpdateAttachment(att.URL, target); err != nil {
		return "", fmt.Errorf("failed to record %s: %w", name, err)
	}

	c.logger.AttachmentCached(att.URL, name, size)
	return name, nil
}

// URL returns the served address of a cached file.
func (c *Cache) URL(name string) string {
	return c.baseURL + "/" + name
}

// Remap maps a remote attachment URL to its served local copy.
func (c *Cache) Remap(url string) (string, bool) {
	entry, ok := c.state.Attachment(url)
	if !ok {
		return "", false
	}
	return c.URL(entry.File), true
}
