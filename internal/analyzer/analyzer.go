// Package analyzer extracts structure and feature signals from artifact text.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/entro314-labs/vdk/internal/model"
)

// Header is the result of parsing an optional structured header block.
// Either Parsed is true and Fields holds the key-value map, or the whole
// input was treated as body. Parsing never fails.
type Header struct {
	Parsed bool
	Fields map[string]any
}

// ParseHeader splits an artifact into its optional key-value header block
// and body. Malformed headers degrade to an unparsed result with the full
// input as body.
func ParseHeader(text string) (Header, string) {
	fields, body := model.SplitDocument(text)
	if fields == nil {
		return Header{}, body
	}
	return Header{Parsed: true, Fields: fields}, body
}

// String returns a header field as a trimmed string, or "" when absent or
// not string-valued.
func (h Header) String(key string) string {
	if !h.Parsed {
		return ""
	}
	if v, ok := h.Fields[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Strings returns a header field as a string list, accepting both YAML
// sequences and a single scalar.
func (h Header) Strings(key string) []string {
	if !h.Parsed {
		return nil
	}
	switch v := h.Fields[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

var (
	markdownHeading = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	pseudoHeading   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /_-]{1,60}):\s*$`)
)

// SplitSections breaks a body into ordered hierarchical sections. Markdown
// headings carry their level; colon-terminated pseudo-headings count as
// level 2. Text before the first heading lands in an untitled level-0
// preamble section.
func SplitSections(body string) []model.Section {
	var sections []model.Section
	current := model.Section{Level: 0}
	flush := func() {
		if current.Title != "" || len(current.Lines) > 0 {
			sections = append(sections, current)
		}
	}
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			current.Lines = append(current.Lines, line)
			continue
		}
		if !inFence {
			if m := markdownHeading.FindStringSubmatch(line); m != nil {
				flush()
				current = model.Section{Level: len(m[1]), Title: strings.TrimSpace(m[2])}
				continue
			}
			if m := pseudoHeading.FindStringSubmatch(line); m != nil {
				flush()
				current = model.Section{Level: 2, Title: strings.TrimSpace(m[1])}
				continue
			}
		}
		current.Lines = append(current.Lines, line)
	}
	flush()
	return sections
}

var templatingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\{[^}]+\}\}`),     // double-brace
	regexp.MustCompile(`\$\{[^}]+\}`),       // dollar-brace
	regexp.MustCompile(`<[A-Za-z][\w-]*>`),  // angle-tag placeholder
	regexp.MustCompile(`\[\[[^\]]+\]\]`),    // double-bracket
	regexp.MustCompile(`%[A-Za-z][\w-]*%`),  // percent-delimited
}

var (
	commandKeywords = []string{"/command", "slash command", "run:", "execute", "$ ", "```bash", "```sh", "npm run", "go run"}
	ruleKeywords    = []string{"rule", "always", "never", "must", "should", "do not", "guideline", "convention"}
	memoryKeywords  = []string{"memory", "remember", "context", "recall", "persist", "history"}
)

// DetectFlags computes the boolean feature flags for a body. Each flag is
// computed independently from its own keyword set.
func DetectFlags(body string, ctype model.ContextType) model.Flags {
	lower := strings.ToLower(body)
	flags := model.Flags{
		HasCommands:        containsAny(lower, commandKeywords),
		HasRules:           containsAny(lower, ruleKeywords),
		HasMemoryReference: containsAny(lower, memoryKeywords),
	}
	for _, p := range templatingPatterns {
		if p.MatchString(body) {
			flags.HasTemplating = true
			break
		}
	}
	return flags
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words in a body.
func WordCount(body string) int {
	return len(strings.Fields(body))
}

// FirstParagraph returns the first non-heading paragraph of at least
// minLen characters, or "" when none qualifies.
func FirstParagraph(body string, minLen int) string {
	for _, block := range strings.Split(body, "\n\n") {
		var keep []string
		for _, line := range strings.Split(block, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") {
				continue
			}
			keep = append(keep, trimmed)
		}
		para := strings.Join(keep, " ")
		if len(para) >= minLen {
			return para
		}
	}
	return ""
}
