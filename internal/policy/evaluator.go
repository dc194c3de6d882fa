package policy

import (
	"fmt"
	"strings"

	"github.com/mhalvard/warden/internal/pathscope"
)

// Tier names, in evaluation order. Earlier tiers short-circuit later ones.
const (
	TierCatastrophic = "catastrophic"
	TierSafe         = "safe"
	TierAsk          = "ask"
	TierWarn         = "warn"
	TierScope        = "scope"
	TierDefault      = "default"
)

// chainOperators disqualify a command from safe pass-through: anything
// chained, backgrounded, substituted or redirected must fall through so
// the appended portion is still evaluated. The single-character "&" and
// "|" entries also cover "&&" and "||".
var chainOperators = []string{"&", ";", "|", "$(", "`", "<(", ">(", ">", "<", "\n"}

// Evaluator performs pure policy decisions over shell command strings.
type Evaluator struct {
	cfg   Config
	scope pathscope.Scope
}

// NewEvaluator builds a deterministic, side-effect free evaluator.
// The config is consulted only for this evaluator; nothing is cached
// across instances.
func NewEvaluator(cfg Config) Evaluator {
	return Evaluator{
		cfg:   cfg,
		scope: pathscope.New(cfg.AllowedWriteDirectories, cfg.ProjectDir),
	}
}

// Evaluate returns exactly one decision for the given command. Tiers are
// checked strictly in order; the first tier that fires determines the
// outcome. Malformed input never causes an error: unparseable commands
// degrade to the most conservative applicable decision.
func Evaluate(command string, cfg Config) Decision {
	return NewEvaluator(cfg).Evaluate(command)
}

// Evaluate applies the ordered tiers to one command.
func (e Evaluator) Evaluate(command string) (decision Decision) {
	// A fault inside a tier must never surface as a crash or convert a
	// would-be deny into a silent allow.
	defer func() {
		if r := recover(); r != nil {
			decision = ask("internal", fmt.Sprintf("policy evaluation failed (%v); confirmation required", r))
		}
	}()

	command = strings.TrimSpace(command)
	if command == "" {
		return allowSilent(TierDefault)
	}

	tiers := []func(string) (Decision, bool){
		e.checkCatastrophic,
		e.checkSafePassthrough,
		e.checkAsk,
		e.checkWarn,
		e.checkDirectoryScope,
	}
	for _, tier := range tiers {
		if d, matched := tier(command); matched {
			return d
		}
	}
	return allowSilent(TierDefault)
}

// checkCatastrophic matches the full command text, all lines, against the
// irreversible-operation signatures. Not user-overridable.
func (e Evaluator) checkCatastrophic(command string) (Decision, bool) {
	for _, r := range catastrophicRules {
		if r.re.MatchString(command) {
			return deny(TierCatastrophic, r.reason), true
		}
	}
	return Decision{}, false
}

// checkSafePassthrough allows recognized read-only commands. Only the
// first line is considered, and only when no chaining or redirection
// operator appears anywhere in the command.
func (e Evaluator) checkSafePassthrough(command string) (Decision, bool) {
	if stageCommitRe.MatchString(command) {
		return allowSilent(TierSafe), true
	}

	for _, op := range chainOperators {
		if strings.Contains(command, op) {
			return Decision{}, false
		}
	}

	line, _, _ := strings.Cut(command, "\n")
	line = strings.TrimSpace(line)
	for _, prefix := range safePrefixes {
		if line == prefix || strings.HasPrefix(line, prefix+" ") {
			return allowSilent(TierSafe), true
		}
	}
	return Decision{}, false
}

// checkAsk covers destructive-but-legitimate operations, evaluated
// against the full command text. Deletions get the safe-delete downgrade.
func (e Evaluator) checkAsk(command string) (Decision, bool) {
	if d, matched := e.checkDeletion(command); matched {
		return d, true
	}
	for _, r := range askRules {
		if r.re.MatchString(command) {
			return ask(TierAsk, r.reason), true
		}
	}
	return Decision{}, false
}

// checkDeletion extracts every deletion target from every rm invocation
// in the command. All targets matching a safe-delete path downgrades to
// an annotated allow; any unmatched or unparseable target escalates.
func (e Evaluator) checkDeletion(command string) (Decision, bool) {
	targets, invoked, parseable := extractDeleteTargets(command)
	if !invoked {
		return Decision{}, false
	}
	if !parseable || len(targets) == 0 {
		return ask(TierAsk, "deletion targets could not be determined statically"), true
	}

	unmatched := make([]string, 0, len(targets))
	for _, target := range targets {
		if !matchesSafeDelete(target, e.cfg.SafeDeletePaths) {
			unmatched = append(unmatched, target)
		}
	}
	if len(unmatched) > 0 {
		return ask(TierAsk, fmt.Sprintf("deletion of %s requires confirmation", strings.Join(unmatched, ", "))), true
	}
	return allowWithContext(TierAsk, fmt.Sprintf("deletion allowed: all targets (%s) match configured safe paths", strings.Join(targets, ", "))), true
}

// checkWarn allows commands with known external side effects, annotated
// with a note for the assistant.
func (e Evaluator) checkWarn(command string) (Decision, bool) {
	for _, r := range warnRules {
		if r.re.MatchString(command) {
			return allowWithContext(TierWarn, r.reason), true
		}
	}
	return Decision{}, false
}

// checkDirectoryScope enforces the write allow-list. Skipped entirely when
// the allow-list is empty. Incomplete extraction escalates to ask; a
// resolved target outside every allowed directory denies, naming the paths.
func (e Evaluator) checkDirectoryScope(command string) (Decision, bool) {
	res := e.scope.CheckCommand(command)
	if !res.Enabled {
		return Decision{}, false
	}
	if res.Unparseable {
		return ask(TierScope, "command writes files whose targets cannot be determined statically"), true
	}
	if len(res.DeniedPaths) > 0 {
		return deny(TierScope, fmt.Sprintf("write target outside allowed directories: %s", strings.Join(res.DeniedPaths, ", "))), true
	}
	return Decision{}, false
}

// extractDeleteTargets parses the argument lists of all rm invocations.
// invoked reports whether any rm was seen; parseable is false when a
// target is a shell expansion that cannot be resolved statically.
func extractDeleteTargets(command string) (targets []string, invoked, parseable bool) {
	matches := rmInvocationRe.FindAllStringSubmatch(command, -1)
	if len(matches) == 0 {
		return nil, false, true
	}

	parseable = true
	for _, m := range matches {
		for _, tok := range strings.Fields(m[1]) {
			tok = strings.Trim(tok, `"'`)
			if tok == "" || strings.HasPrefix(tok, "-") {
				continue
			}
			if strings.HasPrefix(tok, "$") || strings.ContainsAny(tok, "`") {
				parseable = false
				continue
			}
			targets = append(targets, tok)
		}
	}
	return targets, true, parseable
}

// matchesSafeDelete uses substring containment against the raw target,
// matching the original hook semantics: a safe path "src" also matches a
// target "src-backup". Documented looseness, kept intentionally.
func matchesSafeDelete(target string, safePaths []string) bool {
	for _, safe := range safePaths {
		safe = strings.TrimSpace(safe)
		if safe != "" && strings.Contains(target, safe) {
			return true
		}
	}
	return false
}
