package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// TokenSource yields reply fragments in order and io.EOF at end of stream.
type TokenSource interface {
	Recv() (string, error)
	Close()
}

// MessageStream adapts an eino message stream to a TokenSource.
// Chunks without text content (usage or finish metadata) are skipped.
type MessageStream struct {
	sr     *schema.StreamReader[*schema.Message]
	finish string
}

// NewMessageStream wraps sr.
func NewMessageStream(sr *schema.StreamReader[*schema.Message]) *MessageStream {
	return &MessageStream{sr: sr}
}

// StreamReply starts a streaming completion for messages.
func StreamReply(ctx context.Context, m model.BaseChatModel, messages []*schema.Message) (*MessageStream, error) {
	sr, err := m.Stream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", HandleError(err))
	}
	return NewMessageStream(sr), nil
}

// Recv returns the next non-empty fragment.
func (s *MessageStream) Recv() (string, error) {
	for {
		msg, err := s.sr.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", HandleError(err)
		}
		if msg == nil {
			continue
		}
		if msg.ResponseMeta != nil && msg.ResponseMeta.FinishReason != "" {
			s.finish = msg.ResponseMeta.FinishReason
		}
		if msg.Content != "" {
			return msg.Content, nil
		}
	}
}

// FinishReason returns the last finish reason seen ("stop", "length", ...).
func (s *MessageStream) FinishReason() string {
	return s.finish
}

// Close releases the underlying stream.
func (s *MessageStream) Close() {
	s.sr.Close()
}

// ChunkSource replays a fixed text as fragments of at most size runes.
type ChunkSource struct {
	runes []rune
	size  int
	pos   int
}

// NewChunkSource splits text into size-rune fragments; size < 1 means 1.
func NewChunkSource(text string, size int) *ChunkSource {
	if size < 1 {
		size = 1
	}
	return &ChunkSource{runes: []rune(text), size: size}
}

// Recv returns the next fragment.
func (c *ChunkSource) Recv() (string, error) {
	if c.pos >= len(c.runes) {
		return "", io.EOF
	}
	end := min(c.pos+c.size, len(c.runes))
	frag := string(c.runes[c.pos:end])
	c.pos = end
	return frag, nil
}

// Close is a no-op.
func (c *ChunkSource) Close() {}

// Collect drains src into a single string.
func Collect(src TokenSource) (string, error) {
	var sb strings.Builder
	for {
		frag, err := src.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(frag)
	}
}

var (
	_ TokenSource = (*MessageStream)(nil)
	_ TokenSource = (*ChunkSource)(nil)
)
