package fence

import "strings"

// Header is the metadata on a fence's opening line: `language` or
// `language-filename`.
type Header struct {
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

// HasFilename reports whether the header names a target file.
func (h Header) HasFilename() bool {
	return h.Filename != ""
}

// String renders the header back to its fence form.
func (h Header) String() string {
	if h.Filename == "" {
		return h.Language
	}
	return h.Language + "-" + h.Filename
}

// ParseHeader splits a header line on its first '-'. A dash followed by
// nothing leaves the filename empty.
func ParseHeader(line string) Header {
	line = strings.TrimSpace(line)
	language, filename, _ := strings.Cut(line, "-")
	return Header{
		Language: strings.TrimSpace(language),
		Filename: strings.TrimSpace(filename),
	}
}
