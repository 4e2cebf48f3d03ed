package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AttachmentState records one cached attachment file.
type AttachmentState struct {
	File string `json:"file"`
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// CardState records the last migration of a card.
type CardState struct {
	Hash       string    `json:"hash"`
	MigratedAt time.Time `json:"migrated_at"`
}

// State is the migration manifest. It is safe for concurrent use.
type State struct {
	mu          sync.Mutex
	Attachments map[string]*AttachmentState `json:"attachments"` // remote url -> cached file
	Cards       map[string]*CardState       `json:"cards"`       // trello id -> last migration
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Attachments: make(map[string]*AttachmentState),
		Cards:       make(map[string]*CardState),
	}
}

// Load reads state from the state file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Attachments == nil {
		state.Attachments = make(map[string]*AttachmentState)
	}
	if state.Cards == nil {
		state.Cards = make(map[string]*CardState)
	}

	return &state, nil
}

// Save writes state to the state file
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	s.mu.Lock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// ComputeHash computes SHA256 hash of a file
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// HashContent hashes an in-memory rendering the same way ComputeHash hashes
// files.
func HashContent(content string) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(content)))
}

// Attachment returns the cached entry for a remote URL.
func (s *State) Attachment(url string) (*AttachmentState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Attachments[url]
	return a, ok
}

// HasChanged checks whether the cached file for url is missing or no longer
// matches the recorded hash.
func (s *State) HasChanged(url, path string) (bool, error) {
	entry, ok := s.Attachment(url)
	if !ok {
		return true, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	hash, err := ComputeHash(path)
	if err != nil {
		return false, err
	}

	return hash != entry.Hash, nil
}

// UpdateAttachment records the cached file for url.
func (s *State) UpdateAttachment(url, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hash, err := ComputeHash(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attachments[url] = &AttachmentState{
		File: filepath.Base(path),
		Hash: hash,
		Size: info.Size(),
	}

	return nil
}

// CardChanged reports whether the card's rendered content differs from the
// last recorded migration.
func (s *State) CardChanged(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Cards[id]
	if !ok {
		return true
	}
	return c.Hash != HashContent(content)
}

// MarkCard records a successful migration of the card's content.
func (s *State) MarkCard(id, content string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cards[id] = &CardState{
		Hash:       HashContent(content),
		MigratedAt: at,
	}
}
