// Package hook implements the JSON request/response boundary between the
// host application and warden's lifecycle handlers. The host sends one
// JSON payload on stdin and reads one JSON decision from stdout; the exit
// status is 0 for any decision and non-zero only when no JSON could be
// produced.
package hook

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mhalvard/warden/internal/policy"
)

// MaxStdinBytes caps stdin reads. Hook payloads are small JSON objects;
// 1 MB is generous headroom that prevents unbounded allocation.
const MaxStdinBytes = 1 << 20

// Hook event names used by the host.
const (
	EventPreToolUse   = "PreToolUse"
	EventPostToolUse  = "PostToolUse"
	EventSessionStart = "SessionStart"
)

// Permission decision values understood by the host.
const (
	PermissionAllow = "allow"
	PermissionDeny  = "deny"
	PermissionAsk   = "ask"
)

// Input is the JSON payload the host sends on stdin.
type Input struct {
	SessionID      string    `json:"session_id"`
	TranscriptPath string    `json:"transcript_path"`
	CWD            string    `json:"cwd"`
	PermissionMode string    `json:"permission_mode"`
	HookEventName  string    `json:"hook_event_name"`
	ToolName       string    `json:"tool_name"`
	ToolInput      ToolInput `json:"tool_input"`
	ToolUseID      string    `json:"tool_use_id"`
	Source         string    `json:"source"`
}

// ToolInput carries the tool parameters relevant to the guard hooks.
type ToolInput struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Output is the JSON response written to stdout.
type Output struct {
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// SpecificOutput carries the per-event decision fields.
type SpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
	AdditionalContext        string `json:"additionalContext,omitempty"`
}

// ReadInput decodes one hook payload from the host, bounded by
// MaxStdinBytes. An empty stream yields a zero Input without error so
// handlers can treat it as "no command".
func ReadInput(r io.Reader) (Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxStdinBytes))
	if err != nil {
		return Input{}, fmt.Errorf("read hook payload: %w", err)
	}
	if len(data) == 0 {
		return Input{}, nil
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("decode hook payload: %w", err)
	}
	return in, nil
}

// WriteOutput encodes one decision for the host.
func WriteOutput(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode hook output: %w", err)
	}
	return nil
}

// PermissionOutput maps a policy decision onto the PreToolUse response.
// The note of an annotated allow travels in the reason field, which the
// host surfaces to the assistant rather than the end user.
func PermissionOutput(decision policy.Decision) Output {
	spec := &SpecificOutput{HookEventName: EventPreToolUse}

	switch decision.Kind {
	case policy.KindDeny:
		spec.PermissionDecision = PermissionDeny
		spec.PermissionDecisionReason = decision.Reason
	case policy.KindAsk:
		spec.PermissionDecision = PermissionAsk
		spec.PermissionDecisionReason = decision.Reason
	case policy.KindAllowWithContext:
		spec.PermissionDecision = PermissionAllow
		spec.PermissionDecisionReason = decision.Note
	default:
		spec.PermissionDecision = PermissionAllow
	}

	return Output{HookSpecificOutput: spec}
}

// ContextOutput builds a SessionStart response carrying extra context for
// the assistant.
func ContextOutput(context string) Output {
	return Output{HookSpecificOutput: &SpecificOutput{
		HookEventName:     EventSessionStart,
		AdditionalContext: context,
	}}
}
