package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/pairvox/internal/config"
)

// NewInitCommand returns the onboarding subcommand.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Initialize the pairvox data directory (~/.pairvox)",
		Action: runInit,
	}
}

func runInit(_ context.Context, cmd *cli.Command) error {
	return initDataDir(cmd.Root().Writer)
}

// initDataDir creates whatever part of the data directory is missing and
// reports each path it created. Existing files are never touched.
func initDataDir(out io.Writer) error {
	root := config.PairvoxPath()
	steps := []struct {
		path    string
		content string // empty for a directory
		perm    os.FileMode
	}{
		{path: root, perm: 0o755},
		{path: config.LogsPath(), perm: 0o755},
		{path: config.SessionsPath(), perm: 0o755},
		{path: config.WorkspacePath(), perm: 0o755},
		{path: config.ConfigPath(), content: defaultConfig, perm: 0o644},
		// Holds API keys.
		{path: config.DotenvPath(), content: defaultDotenv, perm: 0o600},
	}

	created := 0
	for _, st := range steps {
		if _, err := os.Stat(st.path); err == nil {
			continue
		}
		var err error
		if st.content == "" {
			err = os.MkdirAll(st.path, st.perm)
		} else {
			err = os.WriteFile(st.path, []byte(st.content), st.perm)
		}
		if err != nil {
			return fmt.Errorf("init %s: %w", st.path, err)
		}
		fmt.Fprintf(out, "  Created %s\n", st.path)
		created++
	}

	if created == 0 {
		fmt.Fprintf(out, "%s is already set up. Nothing to do.\n", root)
		return nil
	}
	fmt.Fprint(out, initMessage(root))
	return nil
}

const defaultConfig = `{
	// pairvox configuration

	// Code blocks with a filename header are written here.
	// "home_dir": "~/code/scratch",

	"models": {
		"default": "openai",
		"providers": {
			"openai": {
				"driver": "openai",
				"model": "gpt-4o-mini",
				"auth": {
					"api_key": "${{ .Env.OPENAI_API_KEY }}"
				}
			}

			// "claude": {
			// 	"driver": "anthropic",
			// 	"model": "claude-sonnet-4-20250514",
			// 	"max_tokens": 4096
			// },

			// Local model via Ollama (no auth required)
			// "local": {
			// 	"driver": "ollama",
			// 	"model": "qwen2.5-coder:7b",
			// 	"base_url": "http://localhost:11434"
			// }
		}
	},

	"agent": {
		"system_prompt": "",
		"feedback_failures": true
	},

	// say | command | elevenlabs | none
	"speech": {
		"driver": "say"
		// "command": ["espeak", "{text}"],
		// "elevenlabs": { "api_key": "${{ .Env.ELEVENLABS_API_KEY }}", "voice_id": "" }
	},

	// sh runs /bin/sh; interp runs an in-process POSIX shell.
	"shell": {
		"driver": "sh",
		"timeout": "2m"
	},

	"snippets": {
		// end: after the reply; close: as soon as each block closes.
		"drain": "end",
		"deny": ["**/.env", ".git/**"]
	},

	"events": {
		"buffer_size": 1024
	}
}
`

const defaultDotenv = `# pairvox environment variables
# This file is loaded automatically. Existing env vars are never overridden.

# OPENAI_API_KEY=sk-...
# ANTHROPIC_API_KEY=sk-ant-...
# ELEVENLABS_API_KEY=...
`

func initMessage(root string) string {
	return fmt.Sprintf(`
  pairvox is set up at %s

  Next steps:
    1. Put your API key in %s/.env
    2. Adjust %s/config.jsonc if needed
    3. Run: pairvox chat
`, root, root, root)
}
