package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io/v1/text-to-speech/"
	defaultElevenLabsVoice   = "EXAVITQu4vr4xnSDxMaL"
)

// DefaultPlayerCommand plays an mp3 stream from standard input.
var DefaultPlayerCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"}

// ElevenLabsConfig configures the ElevenLabs sink.
type ElevenLabsConfig struct {
	APIKey          string
	VoiceID         string
	ModelID         string
	BaseURL         string
	Stability       float64
	SimilarityBoost float64
	// Player receives the synthesized audio on standard input.
	Player     []string
	HTTPClient *http.Client
}

// ElevenLabsSink synthesizes each job over HTTP and pipes the audio to a
// player command.
type ElevenLabsSink struct {
	cfg  ElevenLabsConfig
	slot slot
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// NewElevenLabsSink validates cfg and fills defaults.
func NewElevenLabsSink(cfg ElevenLabsConfig) (*ElevenLabsSink, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("speech: elevenlabs api key is required")
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultElevenLabsVoice
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if len(cfg.Player) == 0 {
		cfg.Player = DefaultPlayerCommand
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ElevenLabsSink{cfg: cfg}, nil
}

// Submit starts synthesis and playback in the background.
func (s *ElevenLabsSink) Submit(ctx context.Context, text string) error {
	return s.slot.start(func() (func() error, error) {
		return func() error {
			audio, err := s.synthesize(ctx, text)
			if err != nil {
				return err
			}
			return s.play(ctx, audio)
		}, nil
	})
}

// Busy reports whether synthesis or playback is in progress.
func (s *ElevenLabsSink) Busy() bool {
	return s.slot.busy()
}

// Wait blocks until the current job ends.
func (s *ElevenLabsSink) Wait(ctx context.Context) error {
	return s.slot.wait(ctx)
}

func (s *ElevenLabsSink) synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: s.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       s.cfg.Stability,
			SimilarityBoost: s.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech: marshal request: %w", err)
	}

	endpoint := s.cfg.BaseURL + url.PathEscape(s.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("speech: build request: %w", err)
	}
	req.Header.Set("xi-api-key", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech: elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: read audio: %w", err)
	}
	slog.Debug("speech: synthesized", "voice", s.cfg.VoiceID, "bytes", len(audio))
	return audio, nil
}

func (s *ElevenLabsSink) play(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, s.cfg.Player[0], s.cfg.Player[1:]...)
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speech: player %s: %w: %s", s.cfg.Player[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

var _ Sink = (*ElevenLabsSink)(nil)
