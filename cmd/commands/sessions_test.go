package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dohr-michael/pairvox/internal/sessions"
)

func TestPrintSessions(t *testing.T) {
	var buf bytes.Buffer
	if err := printSessions(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "No sessions found.\n" {
		t.Errorf("empty list = %q", got)
	}

	buf.Reset()
	updated := time.Date(2026, 5, 2, 14, 30, 0, 0, time.UTC)
	err := printSessions(&buf, []*sessions.Session{
		{ID: "sess_aaaa1111", Status: sessions.SessionActive, Model: "local", Turns: 3, UpdatedAt: updated, Title: "fix the build"},
		{ID: "sess_bbbb2222", Status: sessions.SessionClosed, UpdatedAt: updated},
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"sess_aaaa1111", "local", "2026-05-02 14:30", "fix the build"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
	if f := strings.Fields(lines[2]); f[2] != "-" || f[len(f)-1] != "-" {
		t.Errorf("row %q should dash out empty model and title", lines[2])
	}
}

func TestPrintTranscript(t *testing.T) {
	ts := time.Date(2026, 5, 2, 9, 15, 0, 0, time.UTC)
	code := 2
	msgs := []sessions.Message{
		{Role: "system", Content: "You are a pair programmer.", Ts: ts},
		{Role: "user", Content: "run the tests", Ts: ts},
		{Role: "assistant", Content: "Running.", Ts: ts.Add(time.Second)},
	}
	turns := []sessions.Turn{{
		Index: 1,
		Snippets: []sessions.SnippetRecord{
			{ID: 1, Language: "go", Action: "file", Path: "/work/main.go"},
			{ID: 2, Language: "sh", Action: "shell", ExitCode: &code},
		},
		Halted:      true,
		Unprocessed: 1,
		Diagnostics: []string{"unterminated code block"},
	}}

	var buf bytes.Buffer
	if err := printTranscript(&buf, msgs, turns); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if strings.Contains(out, "pair programmer") {
		t.Error("system prompt should not be shown")
	}
	for _, want := range []string{
		"[09:15:00] user: run the tests",
		"[09:15:01] assistant: Running.",
		"/work/main.go",
		"halted",
		"1 unprocessed",
		"unterminated code block",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTranscript_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printTranscript(&buf, []sessions.Message{{Role: "system", Content: "x"}}, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "No messages in this session.\n" {
		t.Errorf("got %q", got)
	}
}
