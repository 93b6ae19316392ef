package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dohr-michael/pairvox/internal/config"
	"github.com/dohr-michael/pairvox/internal/shell"
	"github.com/dohr-michael/pairvox/internal/speech"
)

func TestDefaultConfigLoads(t *testing.T) {
	t.Setenv("PAIRVOX_PATH", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.jsonc")
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Models.Default != "openai" || cfg.Snippets.Drain != config.DrainEnd {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Shell.Timeout.Duration().Minutes() != 2 {
		t.Errorf("shell timeout = %v, want 2m", cfg.Shell.Timeout.Duration())
	}
}

func TestNewSpeechSink(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SpeechConfig
		mute    bool
		want    string
		wantErr bool
	}{
		{name: "muted", cfg: config.SpeechConfig{Driver: config.SpeechSay}, mute: true, want: "discard"},
		{name: "none", cfg: config.SpeechConfig{Driver: config.SpeechNone}, want: "discard"},
		{name: "say", cfg: config.SpeechConfig{Driver: config.SpeechSay}, want: "command"},
		{name: "command", cfg: config.SpeechConfig{Driver: config.SpeechCommand, Command: []string{"espeak"}}, want: "command"},
		{name: "command without argv", cfg: config.SpeechConfig{Driver: config.SpeechCommand}, wantErr: true},
		{name: "elevenlabs", cfg: config.SpeechConfig{Driver: config.SpeechElevenLabs, ElevenLabs: config.ElevenLabsConfig{APIKey: "k"}}, want: "elevenlabs"},
		{name: "elevenlabs without key", cfg: config.SpeechConfig{Driver: config.SpeechElevenLabs}, wantErr: true},
		{name: "unknown", cfg: config.SpeechConfig{Driver: "festival"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := newSpeechSink(tt.cfg, tt.mute)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newSpeechSink: %v", err)
			}
			var got string
			switch sink.(type) {
			case speech.Discard:
				got = "discard"
			case *speech.CommandSink:
				got = "command"
			case *speech.ElevenLabsSink:
				got = "elevenlabs"
			}
			if got != tt.want {
				t.Errorf("sink = %T, want %s", sink, tt.want)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	if _, ok := newExecutor(config.ShellConfig{Driver: config.ShellInterp}).(*shell.InterpRunner); !ok {
		t.Error("interp driver did not yield an InterpRunner")
	}
	if _, ok := newExecutor(config.ShellConfig{Driver: config.ShellExec, Shell: "sh"}).(*shell.ExecRunner); !ok {
		t.Error("sh driver did not yield an ExecRunner")
	}
}

func TestTitle(t *testing.T) {
	if got := title("short"); got != "short" {
		t.Errorf("title = %q", got)
	}
	long := make([]rune, 80)
	for i := range long {
		long[i] = 'é'
	}
	if got := []rune(title(string(long))); len(got) != 61 {
		t.Errorf("title length = %d runes, want 61", len(got))
	}
}
