package snippets

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dohr-michael/pairvox/internal/fence"
	"github.com/dohr-michael/pairvox/internal/shell"
)

type recordingProcessor struct {
	seen  []int
	exits map[int]int
	fail  map[int]error
}

func (p *recordingProcessor) Process(_ context.Context, s Snippet) (Outcome, error) {
	if err := p.fail[s.ID]; err != nil {
		return Outcome{}, err
	}
	p.seen = append(p.seen, s.ID)
	return Outcome{Snippet: s, Action: ActionShell, Shell: &shell.Result{ExitCode: p.exits[s.ID]}}, nil
}

func seal(t *testing.T, q *Queue, header, body string) Snippet {
	t.Helper()
	q.Open(fence.ParseHeader(header))
	q.Append(body)
	s, err := q.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	return s
}

func TestQueue_SealsInOrder(t *testing.T) {
	q := NewQueue()
	q.Open(fence.ParseHeader("go-main.go"))
	q.Append("package ")
	q.Append("main\n")
	s, err := q.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := Snippet{ID: 1, Header: fence.Header{Language: "go", Filename: "main.go"}, Body: "package main\n"}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("snippet mismatch (-want +got):\n%s", diff)
	}
	seal(t, q, "sh", "ls\n")
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}
}

func TestQueue_CloseWithoutOpen(t *testing.T) {
	q := NewQueue()
	if _, err := q.Close(); !errors.Is(err, ErrNoOpenSnippet) {
		t.Fatalf("err = %v, want ErrNoOpenSnippet", err)
	}
}

func TestQueue_Abandon(t *testing.T) {
	q := NewQueue()
	if _, ok := q.Abandon(); ok {
		t.Fatal("nothing to abandon")
	}
	q.Open(fence.ParseHeader("py"))
	q.Append("print(1)")
	s, ok := q.Abandon()
	if !ok || s.Body != "print(1)" {
		t.Fatalf("Abandon = %+v, %v", s, ok)
	}
	if q.Len() != 0 || q.IsOpen() {
		t.Error("abandoned snippet must not be queued")
	}
}

func TestQueue_DrainFIFO(t *testing.T) {
	q := NewQueue()
	for range 3 {
		seal(t, q, "sh", "true")
	}
	p := &recordingProcessor{}
	res, err := q.Drain(context.Background(), p)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, p.seen); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if res.Halted || len(res.Remaining) != 0 || len(res.Outcomes) != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after drain: %d", q.Len())
	}
}

func TestQueue_DrainHaltsOnNonZeroExit(t *testing.T) {
	q := NewQueue()
	seal(t, q, "sh", "true")
	seal(t, q, "sh", "exit 1")
	seal(t, q, "sh", "echo never")

	p := &recordingProcessor{exits: map[int]int{2: 1}}
	res, err := q.Drain(context.Background(), p)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if !res.Halted || res.Failure == nil || res.Failure.Snippet.ID != 2 {
		t.Fatalf("expected halt on snippet 2, got %+v", res)
	}
	if diff := cmp.Diff([]int{1, 2}, p.seen); diff != "" {
		t.Errorf("processed mismatch (-want +got):\n%s", diff)
	}
	if len(res.Remaining) != 1 || res.Remaining[0].ID != 3 {
		t.Errorf("remaining = %+v", res.Remaining)
	}
}

func TestQueue_DrainError(t *testing.T) {
	q := NewQueue()
	seal(t, q, "sh", "a")
	seal(t, q, "sh", "b")
	boom := errors.New("boom")
	p := &recordingProcessor{fail: map[int]error{1: boom}}
	res, err := q.Drain(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(res.Remaining) != 2 {
		t.Errorf("remaining = %d, want 2", len(res.Remaining))
	}
}

func TestQueue_DrainCancelled(t *testing.T) {
	q := NewQueue()
	seal(t, q, "sh", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Drain(ctx, &recordingProcessor{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestResult_Merge(t *testing.T) {
	fail := Outcome{Action: ActionShell, Shell: &shell.Result{ExitCode: 3}}
	var r Result
	r.Merge(Result{Outcomes: []Outcome{{Action: ActionFile}}})
	r.Merge(Result{Outcomes: []Outcome{fail}, Halted: true, Failure: &fail})
	r.Merge(Result{Halted: true, Failure: &Outcome{}})
	if !r.Halted || r.Failure.Shell.ExitCode != 3 {
		t.Errorf("first failure must win: %+v", r)
	}
	if len(r.Outcomes) != 2 {
		t.Errorf("outcomes = %d, want 2", len(r.Outcomes))
	}
}

func TestQueue_Take(t *testing.T) {
	q := NewQueue()
	a := seal(t, q, "sh", "one\n")
	b := seal(t, q, "sh", "two\n")

	got := q.Take()
	if diff := cmp.Diff([]Snippet{a, b}, got); diff != "" {
		t.Errorf("Take mismatch (-want +got):\n%s", diff)
	}
	if q.Len() != 0 {
		t.Errorf("Len after Take = %d, want 0", q.Len())
	}
}
