// Package fence classifies a streamed model reply into prose and fenced code.
//
// The Router consumes fragments whose boundaries are unrelated to the text's
// structure and recognizes exactly one construct: the triple-backtick fence
// with an optional `language` or `language-filename` header. Everything else is
// opaque prose.
package fence

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	fenceChar = '`'
	fenceLen  = 3
)

// Kind tags a router event.
type Kind int

const (
	KindProse Kind = iota
	KindCodeOpen
	KindCodeChars
	KindCodeClose
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindProse:
		return "prose"
	case KindCodeOpen:
		return "code.open"
	case KindCodeChars:
		return "code.chars"
	case KindCodeClose:
		return "code.close"
	case KindMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is emitted by value; consumers never share state with the router.
type Event struct {
	Kind Kind
	// Text carries the characters of prose and code.chars events, and the
	// reason of a malformed event.
	Text string
	// Header is set on code.open events.
	Header Header
}

// Prose returns a prose event.
func Prose(text string) Event { return Event{Kind: KindProse, Text: text} }

// CodeOpen returns a code.open event.
func CodeOpen(h Header) Event { return Event{Kind: KindCodeOpen, Header: h} }

// CodeChars returns a code.chars event.
func CodeChars(text string) Event { return Event{Kind: KindCodeChars, Text: text} }

// CodeClose returns a code.close event.
func CodeClose() Event { return Event{Kind: KindCodeClose} }

// Malformed returns a malformed-fence diagnostic.
func Malformed(reason string) Event { return Event{Kind: KindMalformed, Text: reason} }

// State is the router's cursor into fence recognition.
type State int

const (
	StateProse State = iota
	// StatePendingOpen holds 1 or 2 backticks seen while still possibly prose.
	StatePendingOpen
	// StateHeader collects the opening line after a completed open fence.
	StateHeader
	StateInCode
	// StatePendingClose holds 1 or 2 line-initial backticks inside code,
	// possibly after indentation.
	StatePendingClose
)

func (s State) String() string {
	switch s {
	case StateProse:
		return "prose"
	case StatePendingOpen:
		return "pending-open"
	case StateHeader:
		return "header"
	case StateInCode:
		return "in-code"
	case StatePendingClose:
		return "pending-close"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Malformed-fence reasons.
const (
	ReasonOpenHeader = "stream ended inside a fence header"
	ReasonOpenCode   = "stream ended inside a code block"
)

// Router is a finite-state machine over fence syntax. It is not safe for
// concurrent use; one Router serves one reply.
type Router struct {
	state State
	// held is the number of unflushed backticks in PendingOpen/PendingClose.
	held int
	// lineStart is true while only blanks have been seen on a body line.
	lineStart bool
	// indent holds those blanks until the line proves to be code or a
	// closing fence.
	indent strings.Builder
	header strings.Builder
	// partial is the incomplete UTF-8 sequence that ended the last fragment.
	partial string

	out     []Event
	run     strings.Builder
	runKind Kind
}

// NewRouter returns a router in the prose state.
func NewRouter() *Router {
	return &Router{}
}

// State returns the current fence state.
func (r *Router) State() State {
	return r.state
}

// Held returns the number of backticks currently held back.
func (r *Router) Held() int {
	return r.held
}

// Feed consumes one fragment and returns the events it completes. Adjacent
// characters of the same kind are coalesced into one event. A multibyte
// character split across fragments is reassembled; bytes that are not UTF-8
// pass through unchanged.
func (r *Router) Feed(fragment string) []Event {
	s := r.partial + fragment
	r.partial = ""
	for len(s) > 0 {
		c, n := utf8.DecodeRuneInString(s)
		if c == utf8.RuneError && n <= 1 && !utf8.FullRuneInString(s) {
			r.partial = s
			break
		}
		r.step(c, s[:n])
		s = s[n:]
	}
	return r.take()
}

// Finish ends the stream. Held backticks are flushed as literal prose. Ending
// inside a header or a code block also yields a malformed event; an
// unterminated header is flushed back as prose so no text is lost. The router
// is ready for a new reply afterwards.
func (r *Router) Finish() []Event {
	for i := 0; i < len(r.partial); i++ {
		r.step(utf8.RuneError, r.partial[i:i+1])
	}
	r.partial = ""

	switch r.state {
	case StatePendingOpen:
		r.release(KindProse)
	case StateHeader:
		r.write(KindProse, strings.Repeat(string(fenceChar), fenceLen)+r.header.String())
		r.mark(Malformed(ReasonOpenHeader))
	case StateInCode, StatePendingClose:
		r.releaseIndent()
		r.release(KindProse)
		r.mark(Malformed(ReasonOpenCode))
	}
	r.state = StateProse
	r.held = 0
	r.lineStart = false
	r.indent.Reset()
	r.header.Reset()
	return r.take()
}

// step advances on one character; raw is its exact bytes in the input.
func (r *Router) step(c rune, raw string) {
	switch r.state {
	case StateProse:
		if c == fenceChar {
			r.held = 1
			r.state = StatePendingOpen
			return
		}
		r.write(KindProse, raw)

	case StatePendingOpen:
		if c == fenceChar {
			r.held++
			if r.held == fenceLen {
				r.held = 0
				r.header.Reset()
				r.state = StateHeader
			}
			return
		}
		r.release(KindProse)
		r.write(KindProse, raw)
		r.state = StateProse

	case StateHeader:
		if c == '\n' {
			r.mark(CodeOpen(ParseHeader(r.header.String())))
			r.header.Reset()
			r.lineStart = true
			r.state = StateInCode
			return
		}
		r.header.WriteString(raw)

	case StateInCode:
		if r.lineStart {
			switch c {
			case ' ', '\t':
				r.indent.WriteString(raw)
				return
			case fenceChar:
				r.held = 1
				r.state = StatePendingClose
				return
			}
			r.releaseIndent()
		}
		r.write(KindCodeChars, raw)
		r.lineStart = c == '\n'

	case StatePendingClose:
		if c == fenceChar {
			r.held++
			if r.held == fenceLen {
				r.held = 0
				r.lineStart = false
				// The indentation belongs to the fence line.
				r.indent.Reset()
				r.mark(CodeClose())
				r.state = StateProse
			}
			return
		}
		// Not a closing fence: the held blanks and backticks are code content.
		r.releaseIndent()
		r.release(KindCodeChars)
		r.write(KindCodeChars, raw)
		r.lineStart = c == '\n'
		r.state = StateInCode
	}
}

// release flushes the held backticks as literal text of the given kind.
func (r *Router) release(kind Kind) {
	if r.held > 0 {
		r.write(kind, strings.Repeat(string(fenceChar), r.held))
		r.held = 0
	}
}

func (r *Router) releaseIndent() {
	r.write(KindCodeChars, r.indent.String())
	r.indent.Reset()
}

func (r *Router) write(kind Kind, s string) {
	if s == "" {
		return
	}
	r.switchRun(kind)
	r.run.WriteString(s)
}

func (r *Router) switchRun(kind Kind) {
	if r.run.Len() > 0 && r.runKind != kind {
		r.flushRun()
	}
	r.runKind = kind
}

func (r *Router) flushRun() {
	if r.run.Len() == 0 {
		return
	}
	r.out = append(r.out, Event{Kind: r.runKind, Text: r.run.String()})
	r.run.Reset()
}

// mark appends a structural event after any pending text run.
func (r *Router) mark(e Event) {
	r.flushRun()
	r.out = append(r.out, e)
}

func (r *Router) take() []Event {
	r.flushRun()
	out := r.out
	r.out = nil
	return out
}
