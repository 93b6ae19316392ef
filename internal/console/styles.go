package console

import "github.com/charmbracelet/lipgloss"

// Color palette.
const (
	ColorPrimary   = "#7C3AED" // Violet - prompts
	ColorSecondary = "#10B981" // Green - success
	ColorAccent    = "#60A5FA" // Blue - paths
	ColorWarning   = "#F59E0B" // Amber - snippet headers, diagnostics
	ColorError     = "#EF4444" // Red - failures
	ColorMuted     = "#6B7280" // Gray - hints
	ColorText      = "#E5E7EB"
)

var (
	Primary   = lipgloss.Color(ColorPrimary)
	Secondary = lipgloss.Color(ColorSecondary)
	Accent    = lipgloss.Color(ColorAccent)
	Warning   = lipgloss.Color(ColorWarning)
	Error     = lipgloss.Color(ColorError)
	Muted     = lipgloss.Color(ColorMuted)
)

var (
	// PromptStyle for operator questions
	PromptStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// SnippetHeaderStyle for the snippet preview title
	SnippetHeaderStyle = lipgloss.NewStyle().
				Foreground(Warning).
				Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(Secondary)
	FailureStyle = lipgloss.NewStyle().Foreground(Error).Bold(true)
	PathStyle    = lipgloss.NewStyle().Foreground(Accent)
	HintStyle    = lipgloss.NewStyle().Foreground(Muted).Italic(true)

	// DiagnosticStyle for malformed-stream warnings
	DiagnosticStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Italic(true)
)
