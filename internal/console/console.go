// Package console is the operator's terminal: it echoes the reply, asks what
// to do with ambiguous snippets and reports shell results.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/dohr-michael/pairvox/internal/snippets"
)

const defaultWidth = 80

// ErrClosed is returned when the operator input reaches end of file.
var ErrClosed = errors.New("console: input closed")

type line struct {
	text string
	err  error
}

// Console reads operator answers line by line and writes styled output.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	styled bool
	width  int

	startOnce sync.Once
	lines     chan line

	mu          sync.Mutex
	previewedID int
}

// Option configures a Console.
type Option func(*Console)

// WithStyle forces styled output on or off.
func WithStyle(on bool) Option {
	return func(c *Console) { c.styled = on }
}

// WithWidth sets the render width.
func WithWidth(w int) Option {
	return func(c *Console) {
		if w > 0 {
			c.width = w
		}
	}
}

// New creates a console. Output is styled when out is a terminal.
func New(in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		in:    bufio.NewReader(in),
		out:   out,
		width: defaultWidth,
		lines: make(chan line),
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.styled = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			c.width = w
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stdio returns a console bound to the process terminal.
func Stdio() *Console {
	return New(os.Stdin, os.Stdout)
}

func (c *Console) readLoop() {
	for {
		text, err := c.in.ReadString('\n')
		if text != "" {
			c.lines <- line{text: text}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrClosed
			}
			for {
				c.lines <- line{err: err}
			}
		}
	}
}

// ReadLine blocks for the next input line, without its trailing newline.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.startOnce.Do(func() { go c.readLoop() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-c.lines:
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	}
}

// Prompt writes question and returns the trimmed answer.
func (c *Console) Prompt(ctx context.Context, question string) (string, error) {
	fmt.Fprint(c.out, c.render(PromptStyle, question))
	answer, err := c.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Echo writes raw reply text as it streams.
func (c *Console) Echo(text string) {
	fmt.Fprint(c.out, text)
}

// Write implements io.Writer for the reply echo.
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Printf writes a plain formatted line.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Hint writes a muted line.
func (c *Console) Hint(msg string) {
	fmt.Fprintln(c.out, c.render(HintStyle, msg))
}

// Diagnostic reports a non-fatal stream problem.
func (c *Console) Diagnostic(msg string) {
	fmt.Fprintln(c.out, c.render(DiagnosticStyle, "warning: "+msg))
}

// Failure reports an error.
func (c *Console) Failure(err error) {
	fmt.Fprintln(c.out, c.render(FailureStyle, "error: "+err.Error()))
}

// Decide asks the operator how to handle a snippet without a filename.
// Unrecognized answers and an empty filename yield DecisionDrop.
func (c *Console) Decide(ctx context.Context, s snippets.Snippet) (snippets.Decision, error) {
	c.preview(s)

	answer, err := c.Prompt(ctx, "file or shell or drop? ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(answer) {
	case "file", "f":
		name, err := c.Prompt(ctx, "filename? ")
		if err != nil {
			return nil, err
		}
		if name == "" {
			return snippets.DecisionDrop{}, nil
		}
		return snippets.DecisionFile{Filename: name}, nil
	case "shell", "s":
		return snippets.DecisionShell{}, nil
	default:
		return snippets.DecisionDrop{}, nil
	}
}

// preview shows the snippet once per ID.
func (c *Console) preview(s snippets.Snippet) {
	c.mu.Lock()
	seen := c.previewedID == s.ID
	c.previewedID = s.ID
	c.mu.Unlock()
	if seen {
		return
	}

	title := fmt.Sprintf("snippet #%d", s.ID)
	if s.Header.Language != "" {
		title += " (" + s.Header.Language + ")"
	}
	fmt.Fprintln(c.out, c.render(SnippetHeaderStyle, title))
	if c.styled {
		fmt.Fprintln(c.out, RenderCode(s.Header.Language, s.Body, c.width))
		return
	}
	fmt.Fprintln(c.out, strings.TrimRight(s.Body, "\n"))
}

// Report prints the result of a snippet action: the written path, or the
// exit code followed by the trimmed stdout.
func (c *Console) Report(o snippets.Outcome) {
	switch o.Action {
	case snippets.ActionFile:
		fmt.Fprintf(c.out, "%s %s\n", c.render(SuccessStyle, "wrote"), c.render(PathStyle, o.Path))
	case snippets.ActionShell:
		if o.Shell == nil {
			return
		}
		code := fmt.Sprintf("%d", o.Shell.ExitCode)
		if o.Shell.OK() {
			code = c.render(SuccessStyle, code)
		} else {
			code = c.render(FailureStyle, code)
		}
		fmt.Fprintf(c.out, "%s %s\n", code, strings.TrimSpace(o.Shell.Stdout))
	}
}

func (c *Console) render(style lipgloss.Style, s string) string {
	if !c.styled {
		return s
	}
	return style.Render(s)
}

var (
	_ snippets.Decider  = (*Console)(nil)
	_ snippets.Reporter = (*Console)(nil)
	_ io.Writer         = (*Console)(nil)
)
