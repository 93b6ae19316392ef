// Package sessions persists pair-programming conversations.
package sessions

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// Session holds metadata about a conversation session.
type Session struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Status       SessionStatus `json:"status"`
	Model        string        `json:"model,omitempty"`
	HomeDir      string        `json:"home_dir,omitempty"`
	MessageCount int           `json:"message_count"`
	Turns        int           `json:"turns"`
}

// Message is a single chat message, serializable to JSONL.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Ts      time.Time `json:"ts"`
}

// ToSchemaMessage converts a session Message to an Eino schema.Message.
func (m Message) ToSchemaMessage() *schema.Message {
	return &schema.Message{
		Role:    schema.RoleType(m.Role),
		Content: m.Content,
	}
}

// NewMessageFromSchema converts an Eino schema.Message to a session Message.
func NewMessageFromSchema(msg *schema.Message) Message {
	return Message{
		Role:    string(msg.Role),
		Content: msg.Content,
		Ts:      time.Now(),
	}
}

// SnippetRecord is what happened to one code block of a reply.
type SnippetRecord struct {
	ID       int    `json:"id"`
	Language string `json:"language,omitempty"`
	Filename string `json:"filename,omitempty"`
	Action   string `json:"action,omitempty"`
	Path     string `json:"path,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
}

// Turn records the side effects of one assistant reply.
type Turn struct {
	Index       int             `json:"index"`
	Ts          time.Time       `json:"ts"`
	Snippets    []SnippetRecord `json:"snippets,omitempty"`
	Halted      bool            `json:"halted,omitempty"`
	Unprocessed int             `json:"unprocessed,omitempty"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
}

// Store defines the persistence interface for sessions.
type Store interface {
	Create() (*Session, error)
	Get(id string) (*Session, error)
	List() ([]*Session, error)
	UpdateMeta(s *Session) error
	Close(id string) error
	AppendMessage(sessionID string, msg Message) error
	LoadMessages(sessionID string) ([]Message, error)
	AppendTurn(sessionID string, turn Turn) error
	LoadTurns(sessionID string) ([]Turn, error)
}
