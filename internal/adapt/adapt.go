// Package adapt converts detected contexts into canonical record fields.
// Adaptation never fails: every missing signal degrades to a documented
// default.
package adapt

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/entro314-labs/vdk/internal/analyzer"
	"github.com/entro314-labs/vdk/internal/classify"
	"github.com/entro314-labs/vdk/internal/model"
)

// UniversalPlatform is the platform entry every record carries.
const UniversalPlatform = "ai-assistant"

// GenericDescription is the fallback when an artifact yields no usable text.
const GenericDescription = "Migrated AI assistant context artifact."

const (
	descriptionMinLen = 20
	descriptionMaxLen = 200
	maxTags           = 10
)

// originPlatform maps a context type to its platform capability key.
var originPlatform = map[model.ContextType]string{
	model.TypeAssistantMemory: "claude-code",
	model.TypeEditorRules:     "cursor",
	model.TypeReviewPolicy:    "review-bot",
	model.TypeWorkspaceAgent:  "github-copilot",
	model.TypeGenericPrompt:   "generic",
}

// categoryDefault is the static per-type category, used when no content
// keyword overrides it.
var categoryDefault = map[model.ContextType]string{
	model.TypeAssistantMemory: "core",
	model.TypeEditorRules:     "development",
	model.TypeReviewPolicy:    "development",
	model.TypeWorkspaceAgent:  "development",
	model.TypeGenericPrompt:   "core",
}

// techVocabulary is the fixed technology keyword set mined for tags.
var techVocabulary = []string{
	"go", "python", "typescript", "javascript", "react", "vue",
	"docker", "kubernetes", "terraform", "aws", "sql", "rust", "java",
}

// Adapt converts a detected context into a canonical record. It never
// returns an error; unreadable sources were already dropped at detection.
func Adapt(ctx model.DetectedContext) model.CanonicalRecord {
	def, _ := classify.Lookup(ctx.Type)
	now := time.Now().UTC().Format("2006-01-02")

	rec := model.CanonicalRecord{
		ID:            recordID(def.ShortCode, ctx.Source.Name),
		Kind:          recordKind(ctx),
		Title:         title(ctx),
		Description:   description(ctx),
		Version:       "1.0.0",
		SchemaVersion: model.SchemaVersion,
		Category:      Category(ctx.Body, ctx.Type),
		Scope:         Scope(ctx.Body),
		Complexity:    Complexity(ctx),
		Created:       created(ctx, now),
		Updated:       now,
		Platforms:     platforms(ctx, def),
		Tags:          tags(ctx),
		Body:          ctx.Body,
	}
	rec.Audience = Audience(rec.Scope)
	rec.Maturity = Maturity(ctx.Body)
	return rec
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a filename, drops its extension, and reduces it to
// hyphen-separated alphanumerics.
func Slugify(name string) string {
	return Kebab(strings.TrimSuffix(name, extensionOf(name)))
}

// Kebab reduces arbitrary text to lowercase kebab-case.
func Kebab(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// recordID builds the canonical id from the type short code and the
// artifact's slugified base name. An empty slug falls back to a
// timestamp-based id so the record always gets a usable identity.
func recordID(shortCode, name string) string {
	slug := Slugify(name)
	if slug == "" {
		return fmt.Sprintf("%s-%d-%s", shortCode, time.Now().UTC().Unix(), uuid.NewString()[:8])
	}
	return shortCode + "-" + slug
}

func recordKind(ctx model.DetectedContext) model.RecordKind {
	if v, ok := ctx.Extra["hasSlashCommands"].(bool); ok && v {
		return model.KindCommand
	}
	return model.KindBlueprint
}

// typeNamePrefixes are stripped from filenames before title-casing.
var typeNamePrefixes = []string{"claude", "cursor", "copilot", "agents", "prompt", "review", "memory"}

func title(ctx model.DetectedContext) string {
	if t := headerString(ctx.Header, "title"); t != "" {
		return t
	}
	for _, s := range ctx.Sections {
		if s.Level == 1 && s.Title != "" {
			return s.Title
		}
	}
	return titleFromName(ctx.Source.Name)
}

func titleFromName(name string) string {
	base := strings.TrimSuffix(name, extensionOf(name))
	base = strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(base), " "), " ")
	for _, prefix := range typeNamePrefixes {
		if strings.HasPrefix(base, prefix+" ") {
			base = strings.TrimPrefix(base, prefix+" ")
			break
		}
	}
	if base == "" {
		base = "untitled context"
	}
	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func description(ctx model.DetectedContext) string {
	if d := headerString(ctx.Header, "description"); d != "" {
		return d
	}
	if para := analyzer.FirstParagraph(ctx.Body, descriptionMinLen); para != "" {
		if len(para) > descriptionMaxLen {
			cut := descriptionMaxLen - 3
			for cut > 0 && !utf8.RuneStart(para[cut]) {
				cut--
			}
			return para[:cut] + "..."
		}
		return para
	}
	return GenericDescription
}

// categoryRule is one step of the ordered content-keyword chain.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"testing", []string{"test", "spec"}},
	{"security", []string{"security", "auth"}},
	{"performance", []string{"performance", "optimize"}},
	{"git", []string{"git", "commit"}},
	{"debugging", []string{"debug", "log"}},
	{"documentation", []string{"doc", "readme"}},
	{"refactoring", []string{"refactor", "clean"}},
	{"development", []string{"api", "endpoint", "ui", "component"}},
}

// Category resolves the record category: the first matching keyword rule
// wins, otherwise the type's static default, otherwise core.
func Category(body string, ctype model.ContextType) string {
	lower := strings.ToLower(body)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	if def, ok := categoryDefault[ctype]; ok {
		return def
	}
	return "core"
}

// Scope resolves the record scope through an ordered keyword chain.
func Scope(body string) string {
	lower := strings.ToLower(body)
	switch {
	case containsAny(lower, "project", "global"):
		return "project"
	case containsAny(lower, "system", "architecture"):
		return "system"
	case containsAny(lower, "feature", "module"):
		return "feature"
	case containsAny(lower, "component", "class"):
		return "component"
	default:
		return "file"
	}
}

// Complexity buckets a context by size, structure, and templating.
func Complexity(ctx model.DetectedContext) string {
	words := analyzer.WordCount(ctx.Body)
	sections := len(ctx.Sections)
	switch {
	case words > 1000 || sections > 5 || ctx.Flags.HasTemplating:
		return "complex"
	case words > 300 || sections > 2:
		return "medium"
	default:
		return "simple"
	}
}

// Audience derives the record audience from its scope.
func Audience(scope string) string {
	if scope == "project" || scope == "system" {
		return "team"
	}
	return "developer"
}

// Maturity marks very thin artifacts as experimental.
func Maturity(body string) string {
	if analyzer.WordCount(body) < 50 {
		return "experimental"
	}
	return "stable"
}

func platforms(ctx model.DetectedContext, def classify.Definition) map[string]model.PlatformCapability {
	origin := originPlatform[ctx.Type]
	if origin == "" {
		origin = "generic"
	}
	extra := map[string]any{
		"priority":       clamp(ctx.Score, 0, 100),
		"characterLimit": CharacterLimit(len(ctx.Body)),
	}
	switch ctx.Type {
	case model.TypeEditorRules:
		extra["activation"] = activationMode(ctx.Body)
		if globs, ok := ctx.Extra["globs"].([]string); ok && len(globs) > 0 {
			extra["globs"] = globs
		}
	case model.TypeAssistantMemory:
		extra["activation"] = "always"
	default:
		extra["activation"] = "manual"
	}
	return map[string]model.PlatformCapability{
		origin:            {Compatible: true, Extra: extra},
		UniversalPlatform: {Compatible: true},
	}
}

// CharacterLimit estimates a platform character budget from body length.
func CharacterLimit(bodyLen int) int {
	limit := int(float64(bodyLen) * 1.2)
	if limit < 1000 {
		return 1000
	}
	return limit
}

func activationMode(body string) string {
	if strings.Contains(strings.ToLower(body), "always apply") {
		return "always"
	}
	return "auto"
}

func tags(ctx model.DetectedContext) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(tag string) {
		tag = Kebab(tag)
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, t := range headerStrings(ctx.Header, "tags") {
		add(t)
	}
	lower := strings.ToLower(ctx.Body)
	for _, tech := range techVocabulary {
		if containsWord(lower, tech) {
			add(tech)
		}
	}
	// The origin marker always survives the cap, so trim to leave it a slot.
	if len(out) >= maxTags {
		for _, t := range out[maxTags-1:] {
			delete(seen, t)
		}
		out = out[:maxTags-1]
	}
	add("migrated-from-" + string(ctx.Type))
	return out
}

func created(ctx model.DetectedContext, fallback string) string {
	if !ctx.Source.ModTime.IsZero() {
		return ctx.Source.ModTime.UTC().Format("2006-01-02")
	}
	return fallback
}

func headerString(header map[string]any, key string) string {
	if header == nil {
		return ""
	}
	if v, ok := header[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func headerStrings(header map[string]any, key string) []string {
	if header == nil {
		return nil
	}
	switch v := header[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func extensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 { // dotfiles keep their name whole
		return ""
	}
	return name[idx:]
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

var wordBoundary = regexp.MustCompile(`[a-z0-9]+`)

func containsWord(lower, word string) bool {
	for _, w := range wordBoundary.FindAllString(lower, -1) {
		if w == word {
			return true
		}
	}
	return false
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
