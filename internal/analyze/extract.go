package analyze

import (
	"regexp"
	"strings"
)

// codePatterns is the ordered error-code ladder. The first pattern that
// matches wins and later patterns are not tried, so specific prefixed forms
// must stay ahead of the bare numeric catch-alls.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Error:\s*([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`(?i)Exception:\s*([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`HTTP\s+(\d{3})`),
	regexp.MustCompile(`(?i)status[=:]\s*(\d{3})`),
	regexp.MustCompile(`(?i)exit\s+code\s+(\d+)`),
	regexp.MustCompile(`(?i)code\s+(\d+)`),
	regexp.MustCompile(`(\d{4,6})`),
	regexp.MustCompile(`([A-Z]{2,4}\d{2,4})`),
}

var (
	severityRe = regexp.MustCompile(`(?i)(?:severity|level):\s*(low|medium|high|critical)`)
	actionsRe  = regexp.MustCompile(`(?i)(?:actions?|suggestions?|steps?):\s*(.+)`)
)

// ExtractCode scans text for an error code. Returns the first captured
// group of the first matching pattern, or "" when nothing matches.
func ExtractCode(text string) string {
	for _, re := range codePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// ExtractSeverity reads a "severity:" or "level:" marker from text.
// Defaults to medium when absent.
func ExtractSeverity(text string) Severity {
	m := severityRe.FindStringSubmatch(text)
	if m == nil {
		return SeverityMedium
	}
	return Severity(strings.ToLower(m[1]))
}

// ExtractActions reads an "actions:"/"suggestions:"/"steps:" marker and
// splits the trailing text on commas and semicolons into trimmed tokens.
// Returns nil when no marker is present.
func ExtractActions(text string) []string {
	m := actionsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var actions []string
	for _, part := range strings.FieldsFunc(m[1], func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if a := strings.TrimSpace(part); a != "" {
			actions = append(actions, a)
		}
	}
	return actions
}
