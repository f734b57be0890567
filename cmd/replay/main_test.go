package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const settledI3 = `........
........
........
....X...
....X...
....X...
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	full := append([]string{"replay", "--config-dir", t.TempDir()}, args...)
	err := newApp(&buf).Run(context.Background(), full)
	return buf.String(), err
}

func TestReplay_FinalOnly(t *testing.T) {
	out, err := run(t, "--final", "drop:I3", "down", "down", "down", "down")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.SplitAfter(out, "\n")
	if lines[0] != "Config: classic (8x6)\n" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	board := strings.Join(lines[1:7], "")
	if diff := cmp.Diff(settledI3, board); diff != "" {
		t.Errorf("Final board mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "Applied 4/5 commands") {
		t.Errorf("Expected summary, got:\n%s", out)
	}
}

func TestReplay_EveryStep(t *testing.T) {
	out, err := run(t, "drop:L", "left", "cw")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{"  1 drop:L", "  2 left", "  3 cw", "Applied 3/3 commands"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
	// header, three steps of one status line and six rows, summary
	if got := strings.Count(out, "\n"); got != 1+3*7+1 {
		t.Errorf("Expected %d lines, got %d:\n%s", 1+3*7+1, got, out)
	}
}

func TestReplay_StopOnBlocked(t *testing.T) {
	out, err := run(t, "--final", "--stop-on-blocked", "left", "drop:I3")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, "Applied 0/1 commands") {
		t.Errorf("Expected replay to stop at the first command, got:\n%s", out)
	}
}

func TestReplay_CommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.txt")
	content := "# settle an I3\ndrop I3\ndown\ndown # twice\n\ndown\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--final", "--file", path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, settledI3) {
		t.Errorf("Expected settled board, got:\n%s", out)
	}
	if !strings.Contains(out, "Applied 4/4 commands") {
		t.Errorf("Expected all commands applied, got:\n%s", out)
	}
}

func TestReplay_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no commands", nil, "no commands"},
		{"bad command", []string{"jump"}, "unknown action"},
		{"drop without piece", []string{"drop"}, "drop needs a piece"},
		{"unknown config", []string{"--config", "missing", "left"}, "config \"missing\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestReadCommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.txt")
	if err := os.WriteFile(path, []byte("drop:L\n  # comment\nleft  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readCommandFile(path)
	if err != nil {
		t.Fatalf("readCommandFile() error = %v", err)
	}
	if diff := cmp.Diff([]string{"drop:L", "left"}, got); diff != "" {
		t.Errorf("readCommandFile() mismatch (-want +got):\n%s", diff)
	}

	if _, err := readCommandFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}
