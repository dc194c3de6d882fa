package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ArchiveEntry is one concluded session appended to history.jsonl.
type ArchiveEntry struct {
	ArchivedAt time.Time `json:"archived_at"`
	State      State     `json:"state"`
}

// Store persists session state. Implementations must treat missing or
// corrupt state as the default empty state rather than an error, so a
// damaged file never breaks a session.
type Store interface {
	Load() (State, error)
	Save(State) error
	Archive(ArchiveEntry) error
}

// FileStore keeps state.json and history.jsonl under
// <projectDir>/.claude/session.
type FileStore struct {
	statePath   string
	historyPath string
	mu          sync.Mutex
}

// NewFileStore creates a file-backed store for a project root.
func NewFileStore(projectDir string) *FileStore {
	dir := filepath.Join(projectDir, ".claude", "session")
	return &FileStore{
		statePath:   filepath.Join(dir, "state.json"),
		historyPath: filepath.Join(dir, "history.jsonl"),
	}
}

// Load reads state from disk. Missing or malformed files load as the
// default empty state.
func (f *FileStore) Load() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.statePath)
	if err != nil {
		return DefaultState(), nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return DefaultState(), nil
	}
	if st.SchemaVersion != SchemaVersion {
		return DefaultState(), nil
	}
	return st, nil
}

// Save writes state to disk, creating the session directory if needed.
func (f *FileStore) Save(st State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.statePath), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	return os.WriteFile(f.statePath, data, 0644)
}

// Archive appends one entry to history.jsonl.
func (f *FileStore) Archive(entry ArchiveEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.historyPath), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	file, err := os.OpenFile(f.historyPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal archive entry: %w", err)
	}
	encoded = append(encoded, '\n')

	if _, err := file.Write(encoded); err != nil {
		return fmt.Errorf("append archive entry: %w", err)
	}
	return nil
}

// History reads back all archived sessions, skipping damaged lines.
func (f *FileStore) History() ([]ArchiveEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []ArchiveEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry ArchiveEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu      sync.Mutex
	state   *State
	history []ArchiveEntry
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns the stored state or the default empty state.
func (m *MemStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return DefaultState(), nil
	}
	return *m.state, nil
}

// Save replaces the stored state.
func (m *MemStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &st
	return nil
}

// Archive appends to the in-memory history.
func (m *MemStore) Archive(entry ArchiveEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, entry)
	return nil
}

// History returns archived entries.
func (m *MemStore) History() []ArchiveEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ArchiveEntry(nil), m.history...)
}
