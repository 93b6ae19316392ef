// Package dirstore keeps entities on disk as one directory each: a meta.json
// document plus append-only JSONL files.
package dirstore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const metaFile = "meta.json"

// maxLine bounds a single JSONL record.
const maxLine = 4 << 20

// ErrNotFound is returned when an entity has no meta.json.
var ErrNotFound = errors.New("not found")

// DirStore holds the entity directories under one root. Its lock is not
// taken by any method; callers that compose several operations hold it.
type DirStore struct {
	sync.RWMutex
	root string
	kind string // "session", for error messages
}

func NewDirStore(root, kind string) *DirStore {
	return &DirStore{root: root, kind: kind}
}

// ValidID rejects IDs that would resolve outside the root.
func (ds *DirStore) ValidID(id string) error {
	switch {
	case id == "", id == ".", id == "..", strings.ContainsAny(id, `/\`):
		return fmt.Errorf("invalid %s id %q", ds.kind, id)
	}
	return nil
}

// FilePath is the path of name inside the entity directory of id.
func (ds *DirStore) FilePath(id, name string) string {
	return filepath.Join(ds.root, id, name)
}

func (ds *DirStore) EnsureDir(id string) error {
	if err := ds.ValidID(id); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(ds.root, id), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", ds.kind, err)
	}
	return nil
}

// ListDirs names every entity directory. A missing root is empty.
func (ds *DirStore) ListDirs() ([]string, error) {
	entries, err := os.ReadDir(ds.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s dirs: %w", ds.kind, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// WriteMeta replaces meta.json in one rename, so readers never see a torn
// document.
func (ds *DirStore) WriteMeta(id string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s meta: %w", ds.kind, err)
	}
	return replaceFile(ds.FilePath(id, metaFile), data)
}

// ReadMeta decodes meta.json into out. A missing entity wraps ErrNotFound.
func (ds *DirStore) ReadMeta(id string, out any) error {
	if err := ds.ValidID(id); err != nil {
		return err
	}
	data, err := os.ReadFile(ds.FilePath(id, metaFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %w: %s", ds.kind, ErrNotFound, id)
	case err != nil:
		return fmt.Errorf("read %s meta: %w", ds.kind, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s meta: %w", ds.kind, err)
	}
	return nil
}

// AppendJSONL writes v as one line at the end of the entity's file name.
func (ds *DirStore) AppendJSONL(id, name string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	f, err := os.OpenFile(ds.FilePath(id, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	_, err = f.Write(append(line, '\n'))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

// LoadJSONL reads the entity's file name as a sequence of T.
func LoadJSONL[T any](ds *DirStore, id, name string) ([]T, error) {
	return ReadJSONLFile[T](ds.FilePath(id, name))
}

// ReadJSONLFile decodes every line of path as a T. Lines that do not decode
// are skipped, so a torn final write loses only itself; a missing file has
// no records.
func ReadJSONLFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(nil, maxLine)
	for sc.Scan() {
		var rec T
		if len(sc.Bytes()) == 0 || json.Unmarshal(sc.Bytes(), &rec) != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
