// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package sanitize

// Threat categories attached to matched patterns. These become sanitizer
// rejection reasons and metric labels, so the set stays closed.
const (
	ThreatSQLInjection     = "sql_injection"
	ThreatXSS              = "xss"
	ThreatPathTraversal    = "path_traversal"
	ThreatCommandInjection = "command_injection"
	ThreatNullByte         = "null_byte"
)

// sqlPatterns are multi-token SQL injection signatures. Single keywords like
// "select" or "drop" are deliberately absent: album and song titles use them
// legitimately ("Select All", "Drop").
var sqlPatterns = []string{
	"drop table",
	"drop database",
	"delete from",
	"insert into",
	"truncate table",
	"union select",
	"union all select",
	"select * from",
	"or 1=1",
	"' or '",
	"\" or \"",
	"; --",
	"';--",
	"exec(",
	"execute immediate",
	"xp_cmdshell",
	"information_schema",
	"waitfor delay",
}

// xssPatterns are script and markup injection signatures.
var xssPatterns = []string{
	"<script",
	"</script",
	"javascript:",
	"vbscript:",
	"onerror=",
	"onload=",
	"onclick=",
	"onmouseover=",
	"<iframe",
	"<object",
	"<embed",
	"<svg/on",
	"data:text/html",
	"expression(",
	"document.cookie",
}

// traversalPatterns are filesystem path traversal signatures.
var traversalPatterns = []string{
	"../",
	"..\\",
	"%2e%2e%2f",
	"%2e%2e/",
	"..%2f",
	"%252e%252e",
	"/etc/passwd",
	"/etc/shadow",
	"c:\\windows",
	"file://",
}

// commandPatterns are shell metacharacter and command injection signatures.
// A lone ampersand stays legal ("Simon & Garfunkel"); doubled operators and
// substitution syntax do not.
var commandPatterns = []string{
	"$(",
	"`",
	"&&",
	"||",
	"|sh",
	"| sh",
	"|bash",
	"| bash",
	";rm ",
	"; rm ",
	"2>&1",
	">/dev/",
	"%0a",
	"%0d",
}

// ThreatMatcher scans untrusted recommendation text for injection signatures.
// A single automaton holds every category so each field is scanned once.
type ThreatMatcher struct {
	ac *AhoCorasick
}

// NewThreatMatcher builds the automaton from the built-in pattern lists.
func NewThreatMatcher() *ThreatMatcher {
	ac := NewAhoCorasick()
	ac.AddPatterns(sqlPatterns, ThreatSQLInjection)
	ac.AddPatterns(xssPatterns, ThreatXSS)
	ac.AddPatterns(traversalPatterns, ThreatPathTraversal)
	ac.AddPatterns(commandPatterns, ThreatCommandInjection)
	ac.AddPattern("\x00", ThreatNullByte)
	ac.Build()

	return &ThreatMatcher{ac: ac}
}

// Scan returns the first threat found in text, if any. The sanitizer calls
// it twice per field, once on decoded text and once after markup stripping,
// so neither a complete tag nor a tag-split pattern slips past detection.
func (t *ThreatMatcher) Scan(text string) (Match, bool) {
	return t.ac.SearchFirst(text)
}

// Category extracts the threat category from a match, falling back to
// "unknown" for patterns registered without one.
func Category(m Match) string {
	if c, ok := m.Data.(string); ok {
		return c
	}
	return "unknown"
}
