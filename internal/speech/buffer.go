package speech

import (
	"strings"
	"unicode/utf8"
)

// boundaries are the marks that end a sentence.
const boundaries = ".:\n!?"

func isBoundary(r rune) bool {
	return strings.ContainsRune(boundaries, r)
}

// triggers reports whether a unit of appended text closes a sentence: it
// starts or ends with a boundary mark. Marks in the middle of a unit do not
// count; units are near word size in practice.
func triggers(unit string) bool {
	if unit == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(unit)
	last, _ := utf8.DecodeLastRuneInString(unit)
	return isBoundary(first) || isBoundary(last)
}

// Buffer accumulates prose and seals it into sentences.
type Buffer struct {
	buf strings.Builder
}

// NewBuffer creates an empty sentence buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends text and, when text triggers a boundary, seals and returns the
// whole buffer. Sealed text that is only whitespace is discarded.
func (b *Buffer) Add(text string) (string, bool) {
	b.buf.WriteString(text)
	if !triggers(text) {
		return "", false
	}
	sentence := b.buf.String()
	b.buf.Reset()
	if strings.TrimSpace(sentence) == "" {
		return "", false
	}
	return sentence, true
}

// Flush returns the unsealed remainder and clears the buffer.
func (b *Buffer) Flush() string {
	rest := b.buf.String()
	b.buf.Reset()
	return rest
}

// Pending returns the unsealed text without clearing it.
func (b *Buffer) Pending() string {
	return b.buf.String()
}
