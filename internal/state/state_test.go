package state

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewState(t *testing.T) {
	s := NewState()

	if s.Attachments == nil {
		t.Error("Attachments map should be initialized")
	}
	if s.Cards == nil {
		t.Error("Cards map should be initialized")
	}
	if len(s.Attachments) != 0 || len(s.Cards) != 0 {
		t.Error("maps should be empty")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	statePath := filepath.Join(tmpDir, "nested", "state.json")

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	state := NewState()
	state.Attachments["https://trello.com/a/shot.png"] = &AttachmentState{
		File: "a1-shot.png",
		Hash: "sha256:abc123",
		Size: 42,
	}
	state.MarkCard("c1", "h1. Title", at)

	if err := state.Save(statePath); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	loaded, err := Load(statePath)
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	entry, ok := loaded.Attachment("https://trello.com/a/shot.png")
	if !ok {
		t.Fatal("attachment entry not found")
	}
	if entry.File != "a1-shot.png" || entry.Hash != "sha256:abc123" || entry.Size != 42 {
		t.Errorf("attachment entry mismatch: %+v", entry)
	}

	card := loaded.Cards["c1"]
	if card == nil {
		t.Fatal("card entry not found")
	}
	if !card.MigratedAt.Equal(at) {
		t.Errorf("MigratedAt = %v, want %v", card.MigratedAt, at)
	}
	if loaded.CardChanged("c1", "h1. Title") {
		t.Error("unchanged card reported as changed after reload")
	}
}

func TestLoadNonExistent(t *testing.T) {
	state, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("Load should not fail for a missing file: %v", err)
	}
	if state == nil || state.Attachments == nil || state.Cards == nil {
		t.Fatal("expected an initialized empty state")
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a corrupt state file")
	}
}

func TestComputeHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	hash, err := ComputeHash(path)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	want := "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if hash != want {
		t.Errorf("hash = %s, want %s", hash, want)
	}
	if HashContent("hello") != want {
		t.Errorf("HashContent disagrees with ComputeHash")
	}
}

func TestHasChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a1-shot.png")
	url := "https://trello.com/a/shot.png"
	s := NewState()

	changed, err := s.HasChanged(url, path)
	if err != nil || !changed {
		t.Fatalf("unknown url should be changed, got %v, %v", changed, err)
	}

	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateAttachment(url, path); err != nil {
		t.Fatalf("UpdateAttachment failed: %v", err)
	}

	changed, err = s.HasChanged(url, path)
	if err != nil || changed {
		t.Errorf("recorded file should be unchanged, got %v, %v", changed, err)
	}

	if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	changed, err = s.HasChanged(url, path)
	if err != nil || !changed {
		t.Errorf("rewritten file should be changed, got %v, %v", changed, err)
	}

	os.Remove(path)
	changed, err = s.HasChanged(url, path)
	if err != nil || !changed {
		t.Errorf("deleted file should be changed, got %v, %v", changed, err)
	}
}

func TestCardChanged(t *testing.T) {
	s := NewState()
	if !s.CardChanged("c1", "body") {
		t.Error("new card should be changed")
	}
	s.MarkCard("c1", "body", time.Now())
	if s.CardChanged("c1", "body") {
		t.Error("same content should not be changed")
	}
	if !s.CardChanged("c1", "edited body") {
		t.Error("edited content should be changed")
	}
}

func TestConcurrentMarks(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			s.MarkCard(id, "x", time.Now())
			s.CardChanged(id, "x")
		}(i)
	}
	wg.Wait()
	if len(s.Cards) != 26 {
		t.Errorf("expected 26 cards, got %d", len(s.Cards))
	}
}
