package sessions

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/pairvox/internal/storage/dirstore"
)

const (
	messagesFile = "messages.jsonl"
	turnsFile    = "turns.jsonl"
)

// FileStore persists sessions as directories with meta.json, messages.jsonl
// and turns.jsonl.
type FileStore struct {
	ds *dirstore.DirStore
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{ds: dirstore.NewDirStore(baseDir, "session")}
}

// newSessionID is "sess_" and the first 8 hex digits of a random UUID.
func newSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create initialises a new session directory with meta.json.
func (fs *FileStore) Create() (*Session, error) {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	now := time.Now()
	s := &Session{
		ID:        newSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
		Status:    SessionActive,
	}
	if err := fs.ds.EnsureDir(s.ID); err != nil {
		return nil, err
	}
	if err := fs.ds.WriteMeta(s.ID, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get reads session metadata by ID.
func (fs *FileStore) Get(id string) (*Session, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	return fs.readMeta(id)
}

// List returns all sessions sorted by UpdatedAt descending.
func (fs *FileStore) List() ([]*Session, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	ids, err := fs.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, id := range ids {
		s, err := fs.readMeta(id)
		if err != nil {
			continue // skip corrupted sessions
		}
		sessions = append(sessions, s)
	}

	slices.SortFunc(sessions, func(a, b *Session) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return sessions, nil
}

// UpdateMeta atomically rewrites a session's meta.json.
func (fs *FileStore) UpdateMeta(s *Session) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	if err := fs.ds.EnsureDir(s.ID); err != nil {
		return err
	}
	return fs.ds.WriteMeta(s.ID, s)
}

// Close marks a session as closed.
func (fs *FileStore) Close(id string) error {
	return fs.mutate(id, func(s *Session) error {
		s.Status = SessionClosed
		return nil
	})
}

// AppendMessage adds msg to the session transcript.
func (fs *FileStore) AppendMessage(sessionID string, msg Message) error {
	return fs.mutate(sessionID, func(s *Session) error {
		if err := fs.ds.AppendJSONL(sessionID, messagesFile, msg); err != nil {
			return err
		}
		s.MessageCount++
		return nil
	})
}

func (fs *FileStore) LoadMessages(sessionID string) ([]Message, error) {
	return load[Message](fs, sessionID, messagesFile)
}

// AppendTurn records the snippet outcomes of one reply. A zero Index is
// replaced by the next turn number.
func (fs *FileStore) AppendTurn(sessionID string, turn Turn) error {
	return fs.mutate(sessionID, func(s *Session) error {
		if turn.Index == 0 {
			turn.Index = s.Turns + 1
		}
		if turn.Ts.IsZero() {
			turn.Ts = time.Now()
		}
		if err := fs.ds.AppendJSONL(sessionID, turnsFile, turn); err != nil {
			return err
		}
		s.Turns++
		return nil
	})
}

func (fs *FileStore) LoadTurns(sessionID string) ([]Turn, error) {
	return load[Turn](fs, sessionID, turnsFile)
}

// mutate runs fn on the stored meta under the write lock and saves the
// result. Nothing is saved when fn fails.
func (fs *FileStore) mutate(id string, fn func(*Session) error) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	s, err := fs.readMeta(id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return fs.ds.WriteMeta(id, s)
}

func load[T any](fs *FileStore, id, name string) ([]T, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	if err := fs.ds.ValidID(id); err != nil {
		return nil, err
	}
	return dirstore.LoadJSONL[T](fs.ds, id, name)
}

func (fs *FileStore) readMeta(id string) (*Session, error) {
	var s Session
	if err := fs.ds.ReadMeta(id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
