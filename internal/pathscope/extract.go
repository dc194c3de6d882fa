package pathscope

import (
	"regexp"
	"strings"
)

// Extraction is the best-effort result of scanning a command for write
// targets. Unparseable is set when the command shows a write indicator
// whose target cannot be determined statically; callers must escalate
// those to confirmation rather than allow or deny them outright.
type Extraction struct {
	Targets     []string
	Unparseable bool
	Indicators  []string
}

// writeTargetPatterns capture the filesystem path a command writes to.
// The capture group holds the target.
var writeTargetPatterns = []*regexp.Regexp{
	// Output redirection, including append.
	regexp.MustCompile(`>>?\s*([^\s;|&<>]+)`),
	regexp.MustCompile(`\btee\s+(?:-[a-zA-Z]+\s+)*([^\s;|&]+)`),
	// cp/mv/install: the last argument is the destination.
	regexp.MustCompile(`\bcp\s+(?:-[a-zA-Z]+\s+)*(?:[^\s;|&]+\s+)+([^\s;|&]+)`),
	regexp.MustCompile(`\bmv\s+(?:-[a-zA-Z]+\s+)*(?:[^\s;|&]+\s+)+([^\s;|&]+)`),
	regexp.MustCompile(`\binstall\s+(?:-[a-zA-Z]+\s+)*(?:[^\s;|&]+\s+)+([^\s;|&]+)`),
	regexp.MustCompile(`\bmkdir\s+(?:-[a-zA-Z]+\s+)*([^\s;|&]+)`),
	regexp.MustCompile(`\btouch\s+([^\s;|&]+)`),
	regexp.MustCompile(`\bcurl\s+[^\n]*?(?:-o|--output)\s+([^\s;|&]+)`),
	regexp.MustCompile(`\bwget\s+[^\n]*?(?:-O|--output-document)\s+([^\s;|&]+)`),
	regexp.MustCompile(`\bsed\s+-i(?:\s+'[^']*'|\s+"[^"]*")\s+([^\s;|&]+)`),
}

// unparseableWriteIndicators flag commands that write to paths we cannot
// extract. Each has a short name used in reasons.
var unparseableWriteIndicators = []struct {
	name string
	re   *regexp.Regexp
}{
	{"python -c", regexp.MustCompile(`\bpython[23]?\s+-c\b`)},
	{"node -e", regexp.MustCompile(`\bnode\s+-e\b`)},
	{"ruby -e", regexp.MustCompile(`\bruby\s+-e\b`)},
	{"perl -e", regexp.MustCompile(`\bperl\s+-e\b`)},
	{"tar -C", regexp.MustCompile(`\btar\s+[^\n]*(?:-C\b|--directory\b)`)},
	{"unzip -d", regexp.MustCompile(`\bunzip\s+[^\n]*-d\b`)},
	{"rsync", regexp.MustCompile(`\brsync\b`)},
	{"patch", regexp.MustCompile(`\bpatch\b`)},
	{"eval", regexp.MustCompile(`\beval\s`)},
	{"dd", regexp.MustCompile(`\bdd\b[^\n]*\bof=`)},
}

// ExtractWriteTargets scans a command for filesystem write targets.
// Shell variables, subshells and file-descriptor duplications are skipped
// as statically unresolvable; /dev/null is ignored.
func ExtractWriteTargets(command string) Extraction {
	var ex Extraction

	for _, re := range writeTargetPatterns {
		for _, m := range re.FindAllStringSubmatch(command, -1) {
			target := strings.Trim(m[1], `"'`)
			if target == "" || target == "/dev/null" {
				continue
			}
			if strings.HasPrefix(target, "$") || strings.HasPrefix(target, "(") || strings.HasPrefix(target, "&") {
				continue
			}
			ex.Targets = append(ex.Targets, target)
		}
	}

	for _, ind := range unparseableWriteIndicators {
		if ind.re.MatchString(command) {
			ex.Indicators = append(ex.Indicators, ind.name)
		}
	}
	ex.Unparseable = len(ex.Indicators) > 0

	return ex
}
