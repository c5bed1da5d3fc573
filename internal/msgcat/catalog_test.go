package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/rules"
)

func TestStatusDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		st   game.Status
		want string
	}{
		{game.TurnChanged(rules.Black), "Current Turn: black"},
		{game.Check(rules.Black), "Black king is in check!"},
		{game.Checkmate(rules.White), "Checkmate! white wins!"},
		{game.IllegalMove, "Illegal move"},
		{game.Deselected, "Selection cleared"},
		{game.None, ""},
		{game.Status{Kind: "mystery", Color: rules.White}, "mystery white"},
	}
	for _, tc := range cases {
		if got := c.Status(tc.st); got != tc.want {
			t.Fatalf("Status(%+v) = %q, want %q", tc.st, got, tc.want)
		}
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("status:\n  check: \"{{.Color}} en échec\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Status(game.Check(rules.White)); got != "white en échec" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Status(game.TurnChanged(rules.White)); got != "Current Turn: white" {
		t.Fatalf("default lost after override: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("error:\n  conflict: \"x\"\n")
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestRenderMissingKey(t *testing.T) {
	c, _ := New("")
	if _, err := c.Render("status.turn_changed", map[string]string{}); err == nil {
		t.Fatalf("expected missingkey error")
	}
	if _, err := c.Render("nope", nil); err == nil {
		t.Fatalf("expected template not found")
	}
}
