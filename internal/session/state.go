// Package session manages the per-project session state persisted under
// .claude/session. State is an explicit value moved through an injected
// Store, never a package-level singleton.
package session

import "time"

// SchemaVersion guards forward compatibility of persisted state.
const SchemaVersion = "1.0"

// Journal entry types.
const (
	EntrySessionPrimed     = "session_primed"
	EntrySessionConcluded  = "session_concluded"
	EntryTaskCreated       = "task_created"
	EntryTaskStarted       = "task_started"
	EntryTaskCompleted     = "task_completed"
	EntrySubagentSpawned   = "subagent_spawned"
	EntrySubagentCompleted = "subagent_completed"
	EntryVerification      = "verification"
	EntryFileModified      = "file_modified"
)

// State is the session state document, schema v1.0.
type State struct {
	SchemaVersion  string         `json:"schema_version"`
	PrimedAt       *time.Time     `json:"primed_at"`
	ConcludedAt    *time.Time     `json:"concluded_at"`
	Domains        []string       `json:"domains"`
	FoundationDocs []string       `json:"foundation_docs"`
	Journal        []JournalEntry `json:"execution_journal"`
	Subagents      []Subagent     `json:"subagents"`
	Verifications  []Verification `json:"verification_results"`
	FilesModified  []string       `json:"files_modified"`
}

// JournalEntry is one typed event in the execution journal.
type JournalEntry struct {
	ID      string            `json:"id"`
	Time    time.Time         `json:"ts"`
	Type    string            `json:"type"`
	Details map[string]string `json:"details,omitempty"`
}

// Subagent records one spawned subagent.
type Subagent struct {
	Role        string    `json:"role"`
	Type        string    `json:"type"`
	Model       string    `json:"model"`
	Description string    `json:"description"`
	SpawnedAt   time.Time `json:"spawned_at"`
}

// Verification records one verification result.
type Verification struct {
	Type    string    `json:"type"`
	Passed  bool      `json:"passed"`
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"ts"`
}

// DefaultState creates an empty state document.
func DefaultState() State {
	return State{
		SchemaVersion:  SchemaVersion,
		Domains:        []string{},
		FoundationDocs: []string{},
		Journal:        []JournalEntry{},
		Subagents:      []Subagent{},
		Verifications:  []Verification{},
		FilesModified:  []string{},
	}
}

// Primed reports whether the session has been primed.
func (s State) Primed() bool {
	return s.PrimedAt != nil
}

// Summary condenses a session for the conclude step.
type Summary struct {
	PrimedAt         *time.Time     `json:"primed_at"`
	TasksCompleted   int            `json:"tasks_completed"`
	SubagentsSpawned int            `json:"subagents_spawned"`
	SubagentCounts   map[string]int `json:"subagent_counts"`
	Verifications    []Verification `json:"verifications"`
	FilesModified    []string       `json:"files_modified"`
}

// Summarize computes the execution summary for the current state.
func (s State) Summarize() Summary {
	tasksCompleted := 0
	for _, e := range s.Journal {
		if e.Type == EntryTaskCompleted {
			tasksCompleted++
		}
	}

	counts := make(map[string]int)
	for _, sub := range s.Subagents {
		role := sub.Role
		if role == "" {
			role = "unknown"
		}
		counts[role]++
	}

	return Summary{
		PrimedAt:         s.PrimedAt,
		TasksCompleted:   tasksCompleted,
		SubagentsSpawned: len(s.Subagents),
		SubagentCounts:   counts,
		Verifications:    s.Verifications,
		FilesModified:    s.FilesModified,
	}
}
