package policy

// Kind is the variant of a policy decision.
type Kind string

const (
	KindDeny             Kind = "deny"
	KindAsk              Kind = "ask"
	KindAllowWithContext Kind = "allow_with_context"
	KindAllowSilent      Kind = "allow_silent"
)

// Config contains the policy settings consulted during evaluation.
// It is loaded fresh for every evaluation; the evaluator holds no state
// across calls.
type Config struct {
	// SafeDeletePaths are path fragments that downgrade a deletion from
	// ask to an annotated allow when every extracted target matches one.
	SafeDeletePaths []string

	// AllowedWriteDirectories enables directory-scoped write enforcement
	// when non-empty. Empty disables the tier entirely.
	AllowedWriteDirectories []string

	// ProjectDir is the base for resolving relative write targets and
	// relative allow-list entries.
	ProjectDir string
}

// Decision is the single outcome of one evaluation.
// Reason is shown to the user on deny/ask. Note is surfaced to the
// assistant only, on annotated allows.
type Decision struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason,omitempty"`
	Note   string `json:"note,omitempty"`
	Tier   string `json:"tier,omitempty"`
}

// Blocking reports whether the decision stops execution without user input.
func (d Decision) Blocking() bool {
	return d.Kind == KindDeny
}

// Allowed reports whether the command may proceed without user confirmation.
func (d Decision) Allowed() bool {
	return d.Kind == KindAllowSilent || d.Kind == KindAllowWithContext
}

func deny(tier, reason string) Decision {
	return Decision{Kind: KindDeny, Reason: reason, Tier: tier}
}

func ask(tier, reason string) Decision {
	return Decision{Kind: KindAsk, Reason: reason, Tier: tier}
}

func allowWithContext(tier, note string) Decision {
	return Decision{Kind: KindAllowWithContext, Note: note, Tier: tier}
}

func allowSilent(tier string) Decision {
	return Decision{Kind: KindAllowSilent, Tier: tier}
}
