package fence

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// feedAll runs the fragments through a fresh router, finishes the stream and
// merges adjacent text events of the same kind so results do not depend on
// fragment boundaries.
func feedAll(fragments ...string) []Event {
	r := NewRouter()
	var out []Event
	for _, f := range fragments {
		out = append(out, r.Feed(f)...)
	}
	out = append(out, r.Finish()...)
	return normalize(out)
}

func normalize(events []Event) []Event {
	var merged []Event
	for _, e := range events {
		n := len(merged)
		if n > 0 && isText(e.Kind) && merged[n-1].Kind == e.Kind {
			merged[n-1].Text += e.Text
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

func isText(k Kind) bool {
	return k == KindProse || k == KindCodeChars
}

func runes(s string) []string {
	var out []string
	for _, c := range s {
		out = append(out, string(c))
	}
	return out
}

// splits returns every split of s into two and three consecutive fragments,
// one-rune-per-fragment, and a batch of seeded random splits.
func splits(s string) [][]string {
	rs := runes(s)
	var all [][]string
	all = append(all, []string{s}, rs)
	for i := 1; i < len(rs); i++ {
		all = append(all, []string{strings.Join(rs[:i], ""), strings.Join(rs[i:], "")})
		for j := i + 1; j < len(rs); j++ {
			all = append(all, []string{
				strings.Join(rs[:i], ""),
				strings.Join(rs[i:j], ""),
				strings.Join(rs[j:], ""),
			})
		}
	}
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 500; n++ {
		var frags []string
		for i := 0; i < len(rs); {
			size := 1 + rng.Intn(4)
			if i+size > len(rs) {
				size = len(rs) - i
			}
			frags = append(frags, strings.Join(rs[i:i+size], ""))
			i += size
		}
		all = append(all, frags)
	}
	return all
}

func TestRouter_FenceSplitEveryWay(t *testing.T) {
	const text = "```rust-a.rs\nfn f(){}\n```"
	want := []Event{
		CodeOpen(Header{Language: "rust", Filename: "a.rs"}),
		CodeChars("fn f(){}\n"),
		CodeClose(),
	}

	for _, frags := range splits(text) {
		got := feedAll(frags...)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("fragments %q: events mismatch (-want +got):\n%s", frags, diff)
		}
		for _, e := range got {
			if e.Kind == KindProse && strings.Contains(e.Text, "`") {
				t.Fatalf("fragments %q: fence characters leaked into prose: %q", frags, e.Text)
			}
		}
	}
}

func TestRouter_ProseAroundFence(t *testing.T) {
	text := "Here it is:\n```rust-a.rs\nfn f(){}\n```\nDone."
	want := []Event{
		Prose("Here it is:\n"),
		CodeOpen(Header{Language: "rust", Filename: "a.rs"}),
		CodeChars("fn f(){}\n"),
		CodeClose(),
		Prose("\nDone."),
	}
	for _, frags := range splits(text) {
		if diff := cmp.Diff(want, feedAll(frags...)); diff != "" {
			t.Fatalf("fragments %q (-want +got):\n%s", frags, diff)
		}
	}
}

func TestRouter_BacktickInsideBodyIsLiteral(t *testing.T) {
	text := "```go-main.go\ns := `raw`\nx := \"```\"\n```"
	want := []Event{
		CodeOpen(Header{Language: "go", Filename: "main.go"}),
		CodeChars("s := `raw`\nx := \"```\"\n"),
		CodeClose(),
	}
	for _, frags := range [][]string{{text}, runes(text)} {
		if diff := cmp.Diff(want, feedAll(frags...)); diff != "" {
			t.Fatalf("fragments %q (-want +got):\n%s", frags, diff)
		}
	}
}

func TestRouter_LineInitialBackticksThatDoNotClose(t *testing.T) {
	got := feedAll("```md\n`a`\n``b\n```")
	want := []Event{
		CodeOpen(Header{Language: "md"}),
		CodeChars("`a`\n``b\n"),
		CodeClose(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRouter_InlineBackticksInProse(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"single", []string{"use `x` now"}, "use `x` now"},
		{"double", []string{"a``b"}, "a``b"},
		{"split", []string{"a`", "`", "b"}, "a``b"},
		{"trailing", []string{"ends with `"}, "ends with `"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedAll(tt.in...)
			want := []Event{Prose(tt.want)}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouter_FourthBacktickStartsPendingOpen(t *testing.T) {
	r := NewRouter()
	events := r.Feed("```sh\nls\n````")
	want := []Event{
		CodeOpen(Header{Language: "sh"}),
		CodeChars("ls\n"),
		CodeClose(),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if r.State() != StatePendingOpen || r.Held() != 1 {
		t.Fatalf("state = %s held = %d, want pending-open held 1", r.State(), r.Held())
	}
	if diff := cmp.Diff([]Event{Prose("`x")}, r.Feed("x")); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRouter_EmptyHeader(t *testing.T) {
	got := feedAll("```\necho hi\n```")
	want := []Event{
		CodeOpen(Header{}),
		CodeChars("echo hi\n"),
		CodeClose(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRouter_MultibyteText(t *testing.T) {
	text := "héllo ```py-ü.py\nprint('ö')\n```"
	want := []Event{
		Prose("héllo "),
		CodeOpen(Header{Language: "py", Filename: "ü.py"}),
		CodeChars("print('ö')\n"),
		CodeClose(),
	}
	if diff := cmp.Diff(want, feedAll(runes(text)...)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRouter_IndentedFenceInList(t *testing.T) {
	text := "1. Run:\n   ```bash\n   ls\n   ```\nThen done."
	want := []Event{
		Prose("1. Run:\n   "),
		CodeOpen(Header{Language: "bash"}),
		CodeChars("   ls\n"),
		CodeClose(),
		Prose("\nThen done."),
	}
	for _, frags := range splits(text) {
		if diff := cmp.Diff(want, feedAll(frags...)); diff != "" {
			t.Fatalf("fragments %q (-want +got):\n%s", frags, diff)
		}
	}
}

func TestRouter_IndentedLinesThatDoNotClose(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Event
	}{
		{
			name: "indented backticks",
			in:   "```md\n  `x`\n\t``y\n \n\t```",
			want: []Event{
				CodeOpen(Header{Language: "md"}),
				CodeChars("  `x`\n\t``y\n \n"),
				CodeClose(),
			},
		},
		{
			name: "indentation at end of stream",
			in:   "```go\nx\n  ",
			want: []Event{
				CodeOpen(Header{Language: "go"}),
				CodeChars("x\n  "),
				Malformed(ReasonOpenCode),
			},
		},
		{
			name: "indented pending close at end of stream",
			in:   "```go\nx\n  ``",
			want: []Event{
				CodeOpen(Header{Language: "go"}),
				CodeChars("x\n  "),
				Prose("``"),
				Malformed(ReasonOpenCode),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, frags := range [][]string{{tt.in}, runes(tt.in)} {
				if diff := cmp.Diff(tt.want, feedAll(frags...)); diff != "" {
					t.Fatalf("fragments %q (-want +got):\n%s", frags, diff)
				}
			}
		})
	}
}

func TestRouter_SplitInsideMultibyteRune(t *testing.T) {
	text := "né ```py-ü.py\nprint('ö→')\n```"
	want := feedAll(text)
	for i := 1; i < len(text); i++ {
		for j := i; j < len(text); j++ {
			frags := []string{text[:i], text[i:j], text[j:]}
			if diff := cmp.Diff(want, feedAll(frags...)); diff != "" {
				t.Fatalf("byte split %d/%d (-want +got):\n%s", i, j, diff)
			}
		}
	}
}

func TestRouter_InvalidUTF8PassesThrough(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []Event
	}{
		{"stray byte", []string{"a\xffb"}, []Event{Prose("a\xffb")}},
		{"truncated at end", []string{"x", "\xc3"}, []Event{Prose("x\xc3")}},
		{
			name: "inside code",
			in:   []string{"```\n\xfe\xc3", "\xa9\n```"},
			want: []Event{CodeOpen(Header{}), CodeChars("\xfeé\n"), CodeClose()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, feedAll(tt.in...)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouter_FeedCoalescesRuns(t *testing.T) {
	r := NewRouter()
	events := r.Feed("Hello world.")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}
	if events[0] != Prose("Hello world.") {
		t.Fatalf("unexpected event %+v", events[0])
	}
}

func TestRouter_HoldsBackticksAcrossFragments(t *testing.T) {
	r := NewRouter()
	if events := r.Feed("ab`"); len(events) != 1 || events[0] != Prose("ab") {
		t.Fatalf("unexpected events %v", events)
	}
	if events := r.Feed("`"); len(events) != 0 {
		t.Fatalf("expected backticks to be held, got %v", events)
	}
	if r.State() != StatePendingOpen || r.Held() != 2 {
		t.Fatalf("state = %s held = %d, want pending-open held 2", r.State(), r.Held())
	}
	if events := r.Feed("`py\n"); len(events) != 1 || events[0].Kind != KindCodeOpen {
		t.Fatalf("expected code.open, got %v", events)
	}
	if r.State() != StateInCode {
		t.Fatalf("state = %s, want in-code", r.State())
	}
}

func TestRouter_Finish(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []Event
	}{
		{
			name: "pending open flushed as prose",
			in:   []string{"ab`"},
			want: []Event{Prose("ab`")},
		},
		{
			name: "inside header",
			in:   []string{"see ```rus"},
			want: []Event{Prose("see ```rus"), Malformed(ReasonOpenHeader)},
		},
		{
			name: "inside code",
			in:   []string{"```go\nfmt\n"},
			want: []Event{
				CodeOpen(Header{Language: "go"}),
				CodeChars("fmt\n"),
				Malformed(ReasonOpenCode),
			},
		},
		{
			name: "pending close flushed as prose",
			in:   []string{"```go\nfmt\n``"},
			want: []Event{
				CodeOpen(Header{Language: "go"}),
				CodeChars("fmt\n"),
				Prose("``"),
				Malformed(ReasonOpenCode),
			},
		},
		{
			name: "clean prose",
			in:   []string{"Hello", " world"},
			want: []Event{Prose("Hello world")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, feedAll(tt.in...)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouter_FinishResetsState(t *testing.T) {
	r := NewRouter()
	r.Feed("```go\nx")
	r.Finish()
	if r.State() != StateProse || r.Held() != 0 {
		t.Fatalf("state = %s held = %d after Finish", r.State(), r.Held())
	}
	if diff := cmp.Diff([]Event{Prose("next")}, r.Feed("next")); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRouter_TwoBlocks(t *testing.T) {
	got := feedAll("```go-a.go\npackage a\n```\nand\n```sh\ngo test\n```\n")
	want := []Event{
		CodeOpen(Header{Language: "go", Filename: "a.go"}),
		CodeChars("package a\n"),
		CodeClose(),
		Prose("\nand\n"),
		CodeOpen(Header{Language: "sh"}),
		CodeChars("go test\n"),
		CodeClose(),
		Prose("\n"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		line string
		want Header
	}{
		{"rust-a.rs", Header{Language: "rust", Filename: "a.rs"}},
		{"python", Header{Language: "python"}},
		{"", Header{}},
		{" sh - run.sh \r", Header{Language: "sh", Filename: "run.sh"}},
		{"shell-my-file.sh", Header{Language: "shell", Filename: "my-file.sh"}},
		{"rust-", Header{Language: "rust"}},
	}
	for _, tt := range tests {
		if got := ParseHeader(tt.line); got != tt.want {
			t.Errorf("ParseHeader(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestHeaderString(t *testing.T) {
	if got := (Header{Language: "go", Filename: "main.go"}).String(); got != "go-main.go" {
		t.Errorf("String() = %q", got)
	}
	if got := (Header{Language: "sh"}).String(); got != "sh" {
		t.Errorf("String() = %q", got)
	}
}
