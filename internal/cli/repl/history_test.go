package repl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_Add(t *testing.T) {
	h := NewHistory("")

	h.Add("list")
	h.Add("  view 1 ")
	h.Add("view 1") // repeat of the last line
	h.Add("")

	want := []string{"list", "view 1"}
	got := h.Entries()
	if len(got) != len(want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHistory_SkipsInlineKeys(t *testing.T) {
	h := NewHistory("")
	h.Add("key sk_live_secret")
	h.Add("key")
	h.Add("keys")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (%v)", h.Len(), h.Entries())
	}
	for _, e := range h.Entries() {
		if e == "key sk_live_secret" {
			t.Error("inline key was recorded")
		}
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := &History{maxSize: 3}

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")
	h.Add("cmd4")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if got := h.Get(2); got != "cmd2" {
		t.Errorf("oldest = %q, want %q", got, "cmd2")
	}
}

func TestHistory_Get(t *testing.T) {
	h := NewHistory("")
	h.Add("first")
	h.Add("second")
	h.Add("third")

	tests := []struct {
		index int
		want  string
	}{
		{0, "third"},
		{1, "second"},
		{2, "first"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := h.Get(tt.index); got != tt.want {
			t.Errorf("Get(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file)
	h.Add("refresh")
	h.Add("settings")
	if err := h.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("history file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	h2 := NewHistory(file)
	if err := h2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h2.Len() != 2 || h2.Get(0) != "settings" {
		t.Errorf("loaded %v", h2.Entries())
	}
}

func TestHistory_LoadMissingFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"))
	if err := h.Load(); err != nil {
		t.Errorf("Load of missing file should not error: %v", err)
	}
	if h.Len() != 0 {
		t.Error("entries should be empty")
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")
	h.Add("list")
	if err := h.Save(); err != nil {
		t.Errorf("Save() = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() = %v", err)
	}
}
