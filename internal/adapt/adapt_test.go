package adapt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/entro314-labs/vdk/internal/analyzer"
	"github.com/entro314-labs/vdk/internal/model"
)

func memoryContext(name, body string) model.DetectedContext {
	return model.DetectedContext{
		Type:       model.TypeAssistantMemory,
		Confidence: model.ConfidenceHigh,
		Score:      95,
		Source:     model.SourceRef{Name: name, RelPath: name},
		Sections:   analyzer.SplitSections(body),
		Flags:      analyzer.DetectFlags(body, model.TypeAssistantMemory),
		Body:       body,
	}
}

func TestAdaptMemoryFile(t *testing.T) {
	body := "# Project Memory\n\nShared conventions the assistant keeps in mind across sessions.\n"
	rec := Adapt(memoryContext("CLAUDE.md", body))

	if rec.ID != "mem-claude" {
		t.Errorf("id = %q, want mem-claude", rec.ID)
	}
	if rec.Kind != model.KindBlueprint {
		t.Errorf("kind = %s, want blueprint", rec.Kind)
	}
	if rec.Title != "Project Memory" {
		t.Errorf("title = %q, want h1 text", rec.Title)
	}
	if rec.Description != "Shared conventions the assistant keeps in mind across sessions." {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.Category != "core" {
		t.Errorf("category = %q, want core", rec.Category)
	}
	if rec.SchemaVersion != model.SchemaVersion {
		t.Errorf("schemaVersion = %q", rec.SchemaVersion)
	}
	if _, ok := rec.Platforms["claude-code"]; !ok {
		t.Errorf("platforms missing claude-code: %v", rec.Platforms)
	}
	if _, ok := rec.Platforms[UniversalPlatform]; !ok {
		t.Errorf("platforms missing %s: %v", UniversalPlatform, rec.Platforms)
	}
	found := false
	for _, tag := range rec.Tags {
		if tag == "migrated-from-assistant-memory" {
			found = true
		}
	}
	if !found {
		t.Errorf("tags missing origin marker: %v", rec.Tags)
	}
}

func TestAdaptNeverFailsOnEmptyContext(t *testing.T) {
	rec := Adapt(model.DetectedContext{
		Type:   model.TypeGenericPrompt,
		Source: model.SourceRef{Name: "PROMPT.md", RelPath: "PROMPT.md"},
	})

	if rec.ID == "" || rec.Title == "" || rec.Description == "" {
		t.Fatalf("empty identity fields: %+v", rec)
	}
	if rec.Description != GenericDescription {
		t.Errorf("description = %q, want generic fallback", rec.Description)
	}
	if rec.Category != "core" || rec.Scope != "file" || rec.Complexity != "simple" {
		t.Errorf("defaults = %s/%s/%s", rec.Category, rec.Scope, rec.Complexity)
	}
	if rec.Audience != "developer" || rec.Maturity != "experimental" {
		t.Errorf("audience/maturity = %s/%s", rec.Audience, rec.Maturity)
	}
	if rec.Version != "1.0.0" || rec.SchemaVersion != model.SchemaVersion {
		t.Errorf("versions = %s/%s", rec.Version, rec.SchemaVersion)
	}
	if len(rec.Platforms) != 2 {
		t.Errorf("platforms = %v", rec.Platforms)
	}
	if rec.Created == "" || rec.Updated == "" {
		t.Errorf("dates = %q/%q", rec.Created, rec.Updated)
	}
}

func TestAdaptHeaderWins(t *testing.T) {
	ctx := memoryContext("CLAUDE.md", "# Ignored Heading\n\nIgnored paragraph with enough length.\n")
	ctx.Header = map[string]any{
		"title":       "Curated Title",
		"description": "Curated description.",
		"tags":        []any{"Go", "SQL"},
	}
	rec := Adapt(ctx)

	if rec.Title != "Curated Title" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Description != "Curated description." {
		t.Errorf("description = %q", rec.Description)
	}
	if len(rec.Tags) < 2 || rec.Tags[0] != "go" || rec.Tags[1] != "sql" {
		t.Errorf("tags = %v", rec.Tags)
	}
}

func TestAdaptDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("analysis and planning habits carried between sessions ", 8)
	rec := Adapt(memoryContext("CLAUDE.md", long))

	if len(rec.Description) != 200 {
		t.Errorf("description length = %d, want 200", len(rec.Description))
	}
	if !strings.HasSuffix(rec.Description, "...") {
		t.Errorf("description %q not marked truncated", rec.Description)
	}
}

func TestAdaptDescriptionTruncationMultibyte(t *testing.T) {
	// 240 bytes of two-byte runes: a byte-index cut would split one.
	rec := Adapt(memoryContext("CLAUDE.md", strings.Repeat("é", 120)))

	if !utf8.ValidString(rec.Description) {
		t.Errorf("description %q is not valid UTF-8", rec.Description)
	}
	if len(rec.Description) > 200 {
		t.Errorf("description length = %d, want <= 200", len(rec.Description))
	}
	if !strings.HasSuffix(rec.Description, "...") {
		t.Errorf("description %q not marked truncated", rec.Description)
	}
}

func TestRecordKind(t *testing.T) {
	ctx := memoryContext("CLAUDE.md", "/deploy ships the current branch\n")
	ctx.Extra = map[string]any{"hasSlashCommands": true}
	if rec := Adapt(ctx); rec.Kind != model.KindCommand {
		t.Errorf("kind = %s, want command", rec.Kind)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"CLAUDE.md", "claude"},
		{".cursorrules", "cursorrules"},
		{"My Rules v2.md", "my-rules-v2"},
		{"weird___name.txt", "weird-name"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKebabKeepsDots(t *testing.T) {
	// Kebab must not treat a trailing token as a file extension.
	if got := Kebab("API v1.2"); got != "api-v1-2" {
		t.Errorf("Kebab = %q, want api-v1-2", got)
	}
}

func TestRecordIDFallback(t *testing.T) {
	id := recordID("mem", "!!!")
	if !strings.HasPrefix(id, "mem-") {
		t.Errorf("id = %q, want mem- prefix", id)
	}
	if len(id) <= len("mem-") {
		t.Errorf("id = %q has no fallback suffix", id)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		body  string
		ctype model.ContextType
		want  string
	}{
		{"how we test the service", model.TypeAssistantMemory, "testing"},
		{"auth token handling", model.TypeAssistantMemory, "security"},
		{"branching and commit habits", model.TypeAssistantMemory, "git"},
		{"", model.TypeEditorRules, "development"},
		{"", model.TypeAssistantMemory, "core"},
		{"", model.TypeUnclassified, "core"},
	}
	for _, tc := range tests {
		if got := Category(tc.body, tc.ctype); got != tc.want {
			t.Errorf("Category(%q, %s) = %q, want %q", tc.body, tc.ctype, got, tc.want)
		}
	}
}

func TestScope(t *testing.T) {
	tests := []struct{ body, want string }{
		{"applies to the whole project", "project"},
		{"system architecture notes", "system"},
		{"per-feature conventions", "feature"},
		{"one component only", "component"},
		{"just this", "file"},
	}
	for _, tc := range tests {
		if got := Scope(tc.body); got != tc.want {
			t.Errorf("Scope(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestComplexity(t *testing.T) {
	t.Run("word count", func(t *testing.T) {
		ctx := model.DetectedContext{Body: strings.Repeat("word ", 1001)}
		if got := Complexity(ctx); got != "complex" {
			t.Errorf("got %q, want complex", got)
		}
		ctx.Body = strings.Repeat("word ", 301)
		if got := Complexity(ctx); got != "medium" {
			t.Errorf("got %q, want medium", got)
		}
		ctx.Body = "short"
		if got := Complexity(ctx); got != "simple" {
			t.Errorf("got %q, want simple", got)
		}
	})

	t.Run("templating forces complex", func(t *testing.T) {
		ctx := model.DetectedContext{Body: "tiny", Flags: model.Flags{HasTemplating: true}}
		if got := Complexity(ctx); got != "complex" {
			t.Errorf("got %q, want complex", got)
		}
	})

	t.Run("section count", func(t *testing.T) {
		ctx := model.DetectedContext{Sections: make([]model.Section, 6)}
		if got := Complexity(ctx); got != "complex" {
			t.Errorf("got %q, want complex", got)
		}
		ctx.Sections = make([]model.Section, 3)
		if got := Complexity(ctx); got != "medium" {
			t.Errorf("got %q, want medium", got)
		}
	})
}

func TestAudience(t *testing.T) {
	if got := Audience("project"); got != "team" {
		t.Errorf("Audience(project) = %q", got)
	}
	if got := Audience("system"); got != "team" {
		t.Errorf("Audience(system) = %q", got)
	}
	if got := Audience("file"); got != "developer" {
		t.Errorf("Audience(file) = %q", got)
	}
}

func TestCharacterLimit(t *testing.T) {
	if got := CharacterLimit(100); got != 1000 {
		t.Errorf("CharacterLimit(100) = %d, want floor 1000", got)
	}
	if got := CharacterLimit(10000); got != 12000 {
		t.Errorf("CharacterLimit(10000) = %d, want 12000", got)
	}
}

func TestPlatformExtras(t *testing.T) {
	body := "Always apply these editor rules.\n"
	ctx := model.DetectedContext{
		Type:   model.TypeEditorRules,
		Score:  120,
		Source: model.SourceRef{Name: ".cursorrules", RelPath: ".cursorrules"},
		Body:   body,
		Extra:  map[string]any{"globs": []string{"src/**"}},
	}
	rec := Adapt(ctx)

	cursor, ok := rec.Platforms["cursor"]
	if !ok {
		t.Fatalf("platforms = %v", rec.Platforms)
	}
	if got := cursor.Extra["priority"]; got != 100 {
		t.Errorf("priority = %v, want clamped 100", got)
	}
	if got := cursor.Extra["activation"]; got != "always" {
		t.Errorf("activation = %v, want always", got)
	}
	if globs, _ := cursor.Extra["globs"].([]string); len(globs) != 1 {
		t.Errorf("globs = %v", cursor.Extra["globs"])
	}
}

func TestTagsCapped(t *testing.T) {
	var raw []any
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		raw = append(raw, s)
	}
	ctx := memoryContext("CLAUDE.md", "short body")
	ctx.Header = map[string]any{"tags": raw}

	rec := Adapt(ctx)
	if len(rec.Tags) != 10 {
		t.Errorf("tags = %d entries, want 10", len(rec.Tags))
	}
	last := rec.Tags[len(rec.Tags)-1]
	if last != "migrated-from-assistant-memory" {
		t.Errorf("last tag = %q, want origin marker", last)
	}
}
