package policy

import "regexp"

// rule pairs a compiled pattern with the reason reported when it fires.
type rule struct {
	name   string
	re     *regexp.Regexp
	reason string
}

// rm flag permutations that make a deletion recursive and forced:
// -rf, -fr, -r -f, -f -r, with other single-letter flags mixed in.
const rmForceFlags = `(?:-[a-z]*r[a-z]*f[a-z]*|-[a-z]*f[a-z]*r[a-z]*|-[a-z]*r[a-z]*\s+-[a-z]*f[a-z]*|-[a-z]*f[a-z]*\s+-[a-z]*r[a-z]*)`

// catastrophicRules match irreversible operations anywhere in the command
// text, including lines appended after a benign prefix. They are checked
// first and are not downgradable by any configuration.
var catastrophicRules = []rule{
	{
		name:   "recursive_root_delete",
		re:     regexp.MustCompile(`(?im)\b(?:sudo\s+)?rm\s+` + rmForceFlags + `\s+(?:--\s+)?/\*?\s*(?:$|[;&|])`),
		reason: "recursive deletion of the filesystem root is irreversible",
	},
	{
		name:   "recursive_home_delete",
		re:     regexp.MustCompile(`(?im)\b(?:sudo\s+)?rm\s+` + rmForceFlags + `\s+(?:~/?|\$HOME/?)\s*(?:$|[;&|])`),
		reason: "recursive deletion of the home directory is irreversible",
	},
	{
		name:   "no_preserve_root",
		re:     regexp.MustCompile(`(?i)--no-preserve-root`),
		reason: "disabling root deletion safeguards is never permitted",
	},
	{
		name:   "filesystem_format",
		re:     regexp.MustCompile(`(?i)\bmkfs(?:\.[a-z0-9]+)?\b`),
		reason: "formatting a filesystem destroys its contents",
	},
	{
		name:   "raw_device_write",
		re:     regexp.MustCompile(`(?i)\bdd\b[^\n;|&]*\bof=/dev/\S+`),
		reason: "writing directly to a block device destroys its contents",
	},
	{
		name:   "device_redirect",
		re:     regexp.MustCompile(`(?i)>\s*/dev/(?:sd|hd|nvme|vd|xvd|disk)\S*`),
		reason: "redirecting output onto a block device destroys its contents",
	},
	{
		name:   "fork_bomb",
		re:     regexp.MustCompile(`:\(\)\s*\{.*\|.*&\s*\}\s*;`),
		reason: "fork bombs exhaust system resources",
	},
	{
		name:   "world_writable_root",
		re:     regexp.MustCompile(`(?im)\bchmod\s+(?:-R[a-z]*\s+0?777|0?777\s+-R[a-z]*)\s+/\s*(?:$|[;&|])`),
		reason: "recursively making the filesystem root world-writable is irreversible",
	},
	{
		name:   "remote_script_pipe",
		re:     regexp.MustCompile(`(?i)\b(?:curl|wget)\b[^\n]*\|\s*(?:sudo\s+)?(?:bash|sh|zsh|dash|ksh|python[23]?|node|perl|ruby)\b`),
		reason: "piping a downloaded script into an interpreter executes unreviewed remote code",
	},
	{
		name:   "remote_script_process_substitution",
		re:     regexp.MustCompile(`(?i)\b(?:bash|sh|zsh|source)\s+<\(\s*(?:curl|wget)\b`),
		reason: "executing a downloaded script via process substitution runs unreviewed remote code",
	},
	{
		name:   "remote_script_command_substitution",
		re:     regexp.MustCompile(`(?i)\b(?:bash|sh|zsh|python[23]?|node|perl|ruby)\s+(?:-c\s+)?["']?(?:\$\(|` + "`" + `)\s*(?:curl|wget)\b`),
		reason: "executing a downloaded script via command substitution runs unreviewed remote code",
	},
}

// safePrefixes are read-only or low-risk commands allowed without any
// further checks. Matched against the first line only and only when the
// command carries no chaining or redirection operators.
var safePrefixes = []string{
	"git status",
	"git log",
	"git diff",
	"git branch",
	"git show",
	"git remote",
	"git stash list",
	"git tag",
	"git blame",
	"ls",
	"cat",
	"pwd",
	"whoami",
	"uname",
	"date",
	"head",
	"tail",
	"wc",
	"du",
	"df",
	"stat",
	"file",
	"which",
	"grep",
	"rg",
	"go version",
	"go env",
	"echo",
}

// stageCommitRe recognizes the two-step stage-then-record idiom as a
// compound exception to the no-chaining rule for safe pass-through. The
// character classes exclude newlines so a second line never rides the
// exception past evaluation.
var stageCommitRe = regexp.MustCompile(`^git add\s+[^;&|><$\r\n` + "`" + `]*&&\s*git commit(?:\s+[^;&|><$\r\n` + "`" + `]*)?$`)

// rmInvocationRe captures the argument list of every rm invocation in the
// command, not just the first, so appended deletions are still inspected.
var rmInvocationRe = regexp.MustCompile(`(?m)(?:^|[;&|(]\s*|\s)(?:sudo\s+)?rm\s+([^;&|\n]+)`)

// askRules cover destructive-but-legitimate operations whose effects
// cannot be verified statically. Matched against the full command text.
var askRules = []rule{
	{
		name:   "find_delete",
		re:     regexp.MustCompile(`(?i)\bfind\b[^\n;|&]*(?:-delete\b|-exec\s+rm\b)`),
		reason: "deletion via find: targets cannot be determined statically",
	},
	{
		name:   "git_clean",
		re:     regexp.MustCompile(`(?i)\bgit\s+clean\b`),
		reason: "git clean removes untracked files",
	},
	{
		name:   "force_push",
		re:     regexp.MustCompile(`(?i)\bgit\s+push\b[^\n]*(?:--force(?:-with-lease)?\b|\s-f\b)`),
		reason: "force-pushing rewrites published history",
	},
	{
		name:   "history_rewrite",
		re:     regexp.MustCompile(`(?i)\bgit\s+(?:filter-branch\b|reflog\s+expire\b|reset\s+--hard\b)`),
		reason: "rewriting git history discards committed work",
	},
	{
		name:   "interpreter_oneliner",
		re:     regexp.MustCompile(`(?i)\bpython[23]?\s+-c\b|\bnode\s+-e\b|\bruby\s+-e\b|\bperl\s+-e\b`),
		reason: "inline interpreter code can write arbitrary files; its targets cannot be extracted",
	},
	{
		name:   "archive_extract",
		re:     regexp.MustCompile(`(?i)\btar\b[^\n;|&]*(?:\s-[a-z]*C\b|--directory\b)|\bunzip\b[^\n;|&]*\s-d\b`),
		reason: "archive extraction with a directory flag writes files that cannot be enumerated statically",
	},
	{
		name:   "file_sync",
		re:     regexp.MustCompile(`(?i)\brsync\b`),
		reason: "rsync can overwrite whole directory trees",
	},
	{
		name:   "dynamic_eval",
		re:     regexp.MustCompile(`(?i)(?:^|[;&|]\s*|\s)eval\s|\bsource\s+/dev/stdin\b`),
		reason: "dynamically evaluated code cannot be checked ahead of execution",
	},
}

// warnRules match commands with known external side effects. They are
// allowed, with a note relayed to the assistant.
var warnRules = []rule{
	{
		name:   "package_publish",
		re:     regexp.MustCompile(`(?i)\b(?:npm|yarn|pnpm)\s+publish\b|\bcargo\s+publish\b|\bgem\s+push\b|\btwine\s+upload\b`),
		reason: "publishes a package to a public registry",
	},
	{
		name:   "image_push",
		re:     regexp.MustCompile(`(?i)\b(?:docker|podman)\s+(?:image\s+)?push\b`),
		reason: "pushes a container image to a remote registry",
	},
	{
		name:   "dependency_install",
		re:     regexp.MustCompile(`(?i)\bnpm\s+(?:install|i|add)\b|\b(?:yarn|pnpm)\s+add\b|\bpip3?\s+install\b|\bgo\s+get\b|\bcargo\s+add\b|\bbrew\s+install\b|\bapt(?:-get)?\s+install\b`),
		reason: "installs a third-party dependency",
	},
}
