package console

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// codeStyleConfig is a glamour style tuned for code previews.
func codeStyleConfig() ansi.StyleConfig {
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr(ColorText),
			},
			Margin: uintPtr(0),
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr(ColorText),
				},
				Margin: uintPtr(2),
			},
			Chroma: &ansi.Chroma{
				Text:          ansi.StylePrimitive{Color: stringPtr(ColorText)},
				Error:         ansi.StylePrimitive{Color: stringPtr(ColorError)},
				Comment:       ansi.StylePrimitive{Color: stringPtr(ColorMuted), Italic: boolPtr(true)},
				Keyword:       ansi.StylePrimitive{Color: stringPtr(ColorPrimary), Bold: boolPtr(true)},
				KeywordType:   ansi.StylePrimitive{Color: stringPtr(ColorSecondary)},
				Operator:      ansi.StylePrimitive{Color: stringPtr(ColorWarning)},
				NameBuiltin:   ansi.StylePrimitive{Color: stringPtr(ColorSecondary)},
				NameFunction:  ansi.StylePrimitive{Color: stringPtr(ColorAccent)},
				LiteralNumber: ansi.StylePrimitive{Color: stringPtr(ColorWarning)},
				LiteralString: ansi.StylePrimitive{Color: stringPtr(ColorSecondary)},
			},
		},
	}
}

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }
func uintPtr(u uint) *uint       { return &u }

// RenderCode renders body as a highlighted code block.
// If rendering fails, returns the body unchanged.
func RenderCode(language, body string, width int) string {
	if body == "" {
		return ""
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(codeStyleConfig()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return body
	}

	// Pick a fence longer than any backtick run in the body.
	fenceMark := "```"
	for strings.Contains(body, fenceMark) {
		fenceMark += "`"
	}
	src := fenceMark + language + "\n" + strings.TrimRight(body, "\n") + "\n" + fenceMark + "\n"

	rendered, err := renderer.Render(src)
	if err != nil {
		return body
	}
	return strings.TrimRight(rendered, "\n")
}
