package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Manager applies session lifecycle operations to state held in a Store.
type Manager struct {
	store Store
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

// Prime marks the session as primed and clears previous execution data.
func (m *Manager) Prime(domains, foundationDocs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load()
	if err != nil {
		return err
	}

	now := m.now().UTC()
	st.PrimedAt = &now
	st.ConcludedAt = nil
	st.Domains = append([]string{}, domains...)
	st.FoundationDocs = append([]string{}, foundationDocs...)
	st.Journal = []JournalEntry{}
	st.Subagents = []Subagent{}
	st.Verifications = []Verification{}
	st.FilesModified = []string{}

	m.appendJournal(&st, EntrySessionPrimed, map[string]string{
		"domains": strconv.Itoa(len(domains)),
	})

	return m.store.Save(st)
}

// State returns the current state document.
func (m *Manager) State() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Load()
}

// LogTaskCreated journals task creation.
func (m *Manager) LogTaskCreated(subject, taskID string) error {
	return m.journal(EntryTaskCreated, map[string]string{"subject": subject, "task_id": taskID})
}

// LogTaskStarted journals a task start.
func (m *Manager) LogTaskStarted(taskID, subject string) error {
	return m.journal(EntryTaskStarted, map[string]string{"task_id": taskID, "subject": subject})
}

// LogTaskCompleted journals a task completion.
func (m *Manager) LogTaskCompleted(taskID, subject string) error {
	return m.journal(EntryTaskCompleted, map[string]string{"task_id": taskID, "subject": subject})
}

// LogSubagent records a subagent spawn.
func (m *Manager) LogSubagent(role, agentType, model, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load()
	if err != nil {
		return err
	}

	st.Subagents = append(st.Subagents, Subagent{
		Role:        role,
		Type:        agentType,
		Model:       model,
		Description: description,
		SpawnedAt:   m.now().UTC(),
	})
	m.appendJournal(&st, EntrySubagentSpawned, map[string]string{
		"role":  role,
		"type":  agentType,
		"model": model,
	})

	return m.store.Save(st)
}

// LogSubagentCompleted journals a subagent completion.
func (m *Manager) LogSubagentCompleted(role, resultSummary string) error {
	return m.journal(EntrySubagentCompleted, map[string]string{"role": role, "result_summary": resultSummary})
}

// LogVerification records a verification result (test, lint, adversarial).
func (m *Manager) LogVerification(verificationType string, passed bool, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load()
	if err != nil {
		return err
	}

	st.Verifications = append(st.Verifications, Verification{
		Type:    verificationType,
		Passed:  passed,
		Details: details,
		Time:    m.now().UTC(),
	})
	m.appendJournal(&st, EntryVerification, map[string]string{
		"verification_type": verificationType,
		"passed":            strconv.FormatBool(passed),
	})

	return m.store.Save(st)
}

// LogFileModified records a modified file, deduplicated.
func (m *Manager) LogFileModified(path string) error {
	if path == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load()
	if err != nil {
		return err
	}

	for _, existing := range st.FilesModified {
		if existing == path {
			return nil
		}
	}
	st.FilesModified = append(st.FilesModified, path)
	m.appendJournal(&st, EntryFileModified, map[string]string{"path": path})

	return m.store.Save(st)
}

// Summary returns the execution summary for the current state.
func (m *Manager) Summary() (Summary, error) {
	st, err := m.State()
	if err != nil {
		return Summary{}, err
	}
	return st.Summarize(), nil
}

// Conclude stamps the session, archives the full state to history and
// saves the final document.
func (m *Manager) Conclude() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load()
	if err != nil {
		return err
	}

	now := m.now().UTC()
	st.ConcludedAt = &now
	m.appendJournal(&st, EntrySessionConcluded, nil)

	if err := m.store.Archive(ArchiveEntry{ArchivedAt: now, State: st}); err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	return m.store.Save(st)
}

// Reset replaces the current state with the default empty document.
// History is preserved.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Save(DefaultState())
}

func (m *Manager) journal(entryType string, details map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load()
	if err != nil {
		return err
	}
	m.appendJournal(&st, entryType, details)
	return m.store.Save(st)
}

func (m *Manager) appendJournal(st *State, entryType string, details map[string]string) {
	compact := make(map[string]string, len(details))
	for k, v := range details {
		if v != "" {
			compact[k] = v
		}
	}
	st.Journal = append(st.Journal, JournalEntry{
		ID:      m.newID(),
		Time:    m.now().UTC(),
		Type:    entryType,
		Details: compact,
	})
}
