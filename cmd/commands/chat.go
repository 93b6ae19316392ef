package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/pairvox/internal/assistant"
	"github.com/dohr-michael/pairvox/internal/config"
	"github.com/dohr-michael/pairvox/internal/console"
	"github.com/dohr-michael/pairvox/internal/events"
	"github.com/dohr-michael/pairvox/internal/models"
	"github.com/dohr-michael/pairvox/internal/sessions"
)

// NewChatCommand returns the chat subcommand.
func NewChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start a pair-programming conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "home",
				Usage: "Directory receiving code blocks (overrides home_dir)",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Resume an existing session",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Provider name from models.providers",
			},
			&cli.BoolFlag{
				Name:  "mute",
				Usage: "Do not speak the replies",
			},
		},
		Action: runChat,
	}
}

func runChat(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry := models.NewRegistry(cfg.Models)
	chatModel, modelName, err := registry.Resolve(ctx, cmd.String("model"))
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}

	a := newApp(cfg)
	defer a.Close()

	store := sessions.NewFileStore(config.SessionsPath())
	sess, err := openSession(store, cmd.String("session"), modelName, cfg.HomeDir)
	if err != nil {
		return err
	}
	a.bus.Publish(events.NewTypedEventWithSession(events.SourceCLI, events.SessionCreatedPayload{Model: modelName}, sess.ID))

	pipeline, err := a.pipeline(cmd.Bool("mute"))
	if err != nil {
		return err
	}
	conv, err := assistant.NewConversation(assistant.ConversationConfig{
		Model:            chatModel,
		ModelName:        modelName,
		SystemPrompt:     cfg.Agent.SystemPrompt,
		FeedbackFailures: cfg.Agent.Feedback(),
		Pipeline:         pipeline,
		Store:            store,
		Session:          sess,
	})
	if err != nil {
		return err
	}

	a.console.Hint(fmt.Sprintf("session %s · model %s · files in %s", sess.ID, modelName, cfg.HomeDir))
	recorder := console.NewLineRecorder(a.console, "\nYou: ")
	for {
		text, err := recorder.Record(ctx)
		if errors.Is(err, console.ErrClosed) || errors.Is(err, context.Canceled) {
			break
		}
		if err != nil {
			return err
		}
		if sess.Title == "" {
			sess.Title = title(text)
			if err := store.UpdateMeta(sess); err != nil {
				return err
			}
		}

		a.console.Echo("\nAssistant: ")
		report, err := conv.Turn(ctx, text)
		a.summarize(report)
		if errors.Is(err, context.Canceled) {
			break
		}
		if err != nil {
			// A failed snippet write or a broken stream ends the turn, not the session.
			a.console.Failure(err)
		}
	}

	if err := store.Close(sess.ID); err != nil {
		return err
	}
	a.console.Hint("session " + sess.ID + " closed")
	return nil
}

func openSession(store *sessions.FileStore, id, modelName, home string) (*sessions.Session, error) {
	if id != "" {
		sess, err := store.Get(id)
		if err != nil {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		sess.Status = sessions.SessionActive
		if err := store.UpdateMeta(sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	sess, err := store.Create()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.Model = modelName
	sess.HomeDir = home
	if err := store.UpdateMeta(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func title(text string) string {
	const maxTitle = 60
	r := []rune(text)
	if len(r) <= maxTitle {
		return text
	}
	return string(r[:maxTitle]) + "…"
}
