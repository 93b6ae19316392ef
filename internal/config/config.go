package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for pairvox.
type Config struct {
	// HomeDir receives snippet files and is the default shell working directory.
	HomeDir  string         `json:"home_dir"`
	Models   ModelsConfig   `json:"models"`
	Agent    AgentConfig    `json:"agent"`
	Speech   SpeechConfig   `json:"speech"`
	Shell    ShellConfig    `json:"shell"`
	Snippets SnippetsConfig `json:"snippets"`
	Events   EventsConfig   `json:"events"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "openai", "anthropic", "ollama", "gemini", "mistral"
	Model     string         `json:"model"`
	BaseURL   string         `json:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct API key or ${{ .Env.VAR }} template
	Token  string `json:"token,omitempty"`   // Bearer token
}

// AgentConfig holds conversation settings.
type AgentConfig struct {
	SystemPrompt string `json:"system_prompt,omitempty"`
	// FeedbackFailures sends a failed snippet's exit code and output back to
	// the model as the next user message. Defaults to true.
	FeedbackFailures *bool `json:"feedback_failures,omitempty"`
}

// Feedback reports whether shell failures are fed back to the model.
func (a AgentConfig) Feedback() bool {
	return a.FeedbackFailures == nil || *a.FeedbackFailures
}

// Speech drivers.
const (
	SpeechSay        = "say"
	SpeechCommand    = "command"
	SpeechElevenLabs = "elevenlabs"
	SpeechNone       = "none"
)

// SpeechConfig selects the text-to-speech backend.
type SpeechConfig struct {
	Driver     string           `json:"driver"`
	Command    []string         `json:"command,omitempty"` // argv, "{text}" is replaced by the sentence
	ElevenLabs ElevenLabsConfig `json:"elevenlabs"`
}

// ElevenLabsConfig configures the ElevenLabs HTTP backend.
type ElevenLabsConfig struct {
	APIKey  string   `json:"api_key,omitempty"`
	VoiceID string   `json:"voice_id,omitempty"`
	ModelID string   `json:"model_id,omitempty"`
	BaseURL string   `json:"base_url,omitempty"`
	Player  []string `json:"player,omitempty"` // reads mp3 audio on stdin
}

// Shell drivers.
const (
	ShellExec   = "sh"
	ShellInterp = "interp"
)

// ShellConfig selects how shell snippets run.
type ShellConfig struct {
	Driver  string   `json:"driver"`
	Shell   string   `json:"shell,omitempty"` // binary for the "sh" driver
	Timeout Duration `json:"timeout,omitempty"`
	Dir     string   `json:"dir,omitempty"` // defaults to home_dir
}

// Drain points.
const (
	DrainEnd   = "end"
	DrainClose = "close"
)

// SnippetsConfig controls when and where snippets are processed.
type SnippetsConfig struct {
	Drain string   `json:"drain"`
	Deny  []string `json:"deny,omitempty"` // doublestar globs relative to home_dir
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Speech.Driver {
	case SpeechSay, SpeechCommand, SpeechElevenLabs, SpeechNone:
	default:
		return fmt.Errorf("speech.driver: unknown driver %q", c.Speech.Driver)
	}
	if c.Speech.Driver == SpeechCommand && len(c.Speech.Command) == 0 {
		return fmt.Errorf("speech.command: required for driver %q", SpeechCommand)
	}
	switch c.Shell.Driver {
	case ShellExec, ShellInterp:
	default:
		return fmt.Errorf("shell.driver: unknown driver %q", c.Shell.Driver)
	}
	switch c.Snippets.Drain {
	case DrainEnd, DrainClose:
	default:
		return fmt.Errorf("snippets.drain: must be %q or %q, got %q", DrainEnd, DrainClose, c.Snippets.Drain)
	}
	if c.Models.Default != "" {
		if _, ok := c.Models.Providers[c.Models.Default]; !ok {
			return fmt.Errorf("models.default: provider %q not configured", c.Models.Default)
		}
	}
	return nil
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
