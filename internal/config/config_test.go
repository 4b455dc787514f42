package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.Chat.WSURL = "wss://chat.example.com/ws"
	cfg.Delivery.SentAfter = Duration(250 * time.Millisecond)
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.Chat.WSURL != "wss://chat.example.com/ws" {
		t.Errorf("WSURL = %q", loaded.Chat.WSURL)
	}
	if loaded.Delivery.SentAfter.Std() != 250*time.Millisecond {
		t.Errorf("SentAfter = %v, want 250ms", loaded.Delivery.SentAfter.Std())
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(path, []byte(`default_profile = "alt"`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProfile != "alt" {
		t.Errorf("DefaultProfile = %q, want alt", cfg.DefaultProfile)
	}
	// Unset sections keep built-in values.
	if cfg.Delivery.ReadAfter.Std() != 800*time.Millisecond {
		t.Errorf("ReadAfter = %v, want 800ms", cfg.Delivery.ReadAfter.Std())
	}
	if cfg.Simulator.IdlePeriod.Std() != 6*time.Second {
		t.Errorf("IdlePeriod = %v, want 6s", cfg.Simulator.IdlePeriod.Std())
	}
	if cfg.Chat.ConversationID != "main" {
		t.Errorf("ConversationID = %q, want main", cfg.Chat.ConversationID)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(path, []byte("[delivery]\nsent_after = \"soon\""), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for malformed duration")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
