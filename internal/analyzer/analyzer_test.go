package analyzer

import (
	"strings"
	"testing"

	"github.com/entro314-labs/vdk/internal/model"
)

func TestParseHeader(t *testing.T) {
	t.Run("parses header block", func(t *testing.T) {
		text := "---\ntitle: Go Rules\ntags:\n  - go\n  - style\n---\n\nBody text.\n"
		header, body := ParseHeader(text)
		if !header.Parsed {
			t.Fatal("header not parsed")
		}
		if got := header.String("title"); got != "Go Rules" {
			t.Errorf("title = %q, want %q", got, "Go Rules")
		}
		if got := header.Strings("tags"); len(got) != 2 || got[0] != "go" {
			t.Errorf("tags = %v, want [go style]", got)
		}
		if body != "Body text.\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("no header yields full body", func(t *testing.T) {
		text := "# Just Markdown\n\nNo header here.\n"
		header, body := ParseHeader(text)
		if header.Parsed {
			t.Error("header should not parse")
		}
		if body != text {
			t.Errorf("body = %q, want full input", body)
		}
	})

	t.Run("malformed header degrades to body", func(t *testing.T) {
		text := "---\ntitle: [unclosed\n---\nBody.\n"
		header, body := ParseHeader(text)
		if header.Parsed {
			t.Error("malformed header should not parse")
		}
		if body != text {
			t.Errorf("body = %q, want full input", body)
		}
	})

	t.Run("scalar field as string list", func(t *testing.T) {
		text := "---\nglobs: src/**\n---\nBody.\n"
		header, _ := ParseHeader(text)
		if got := header.Strings("globs"); len(got) != 1 || got[0] != "src/**" {
			t.Errorf("globs = %v, want [src/**]", got)
		}
	})
}

func TestSplitSections(t *testing.T) {
	body := strings.Join([]string{
		"intro before any heading",
		"",
		"# Title",
		"content line",
		"",
		"## Details",
		"```",
		"# not a heading inside a fence",
		"```",
		"Setup:",
		"first step",
	}, "\n")

	sections := SplitSections(body)
	if len(sections) != 4 {
		t.Fatalf("got %d sections, want 4: %+v", len(sections), sections)
	}

	if sections[0].Level != 0 || sections[0].Title != "" {
		t.Errorf("preamble = level %d title %q", sections[0].Level, sections[0].Title)
	}
	if sections[1].Level != 1 || sections[1].Title != "Title" {
		t.Errorf("section 1 = level %d title %q", sections[1].Level, sections[1].Title)
	}
	if sections[2].Level != 2 || sections[2].Title != "Details" {
		t.Errorf("section 2 = level %d title %q", sections[2].Level, sections[2].Title)
	}
	fenced := strings.Join(sections[2].Lines, "\n")
	if !strings.Contains(fenced, "# not a heading inside a fence") {
		t.Errorf("fenced heading escaped its section: %q", fenced)
	}
	if sections[3].Level != 2 || sections[3].Title != "Setup" {
		t.Errorf("pseudo-heading = level %d title %q", sections[3].Level, sections[3].Title)
	}
}

func TestSplitSectionsEmptyBody(t *testing.T) {
	if got := SplitSections(""); len(got) != 0 {
		t.Errorf("got %d sections for empty body, want 0", len(got))
	}
}

func TestDetectFlags(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.Flags
	}{
		{
			name: "commands",
			body: "Run the build:\n```bash\nmake all\n```",
			want: model.Flags{HasCommands: true},
		},
		{
			name: "rules",
			body: "You must never push directly to main.",
			want: model.Flags{HasRules: true},
		},
		{
			name: "memory reference",
			body: "Recall prior decisions when planning.",
			want: model.Flags{HasMemoryReference: true},
		},
		{
			name: "templating double brace",
			body: "Hello {{name}}, welcome.",
			want: model.Flags{HasTemplating: true},
		},
		{
			name: "templating percent",
			body: "Insert %placeholder% here.",
			want: model.Flags{HasTemplating: true},
		},
		{
			name: "plain text",
			body: "Nothing special in this file.",
			want: model.Flags{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFlags(tc.body, model.TypeGenericPrompt); got != tc.want {
				t.Errorf("DetectFlags() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two  three\nfour"); got != 4 {
		t.Errorf("WordCount = %d, want 4", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(empty) = %d, want 0", got)
	}
}

func TestFirstParagraph(t *testing.T) {
	t.Run("skips headings and short blocks", func(t *testing.T) {
		body := "# Heading\n\nhi\n\nThis is the first paragraph long enough to qualify.\n"
		got := FirstParagraph(body, 20)
		if got != "This is the first paragraph long enough to qualify." {
			t.Errorf("FirstParagraph = %q", got)
		}
	})

	t.Run("joins wrapped lines", func(t *testing.T) {
		body := "A paragraph wrapped\nacross two lines here.\n"
		got := FirstParagraph(body, 20)
		if got != "A paragraph wrapped across two lines here." {
			t.Errorf("FirstParagraph = %q", got)
		}
	})

	t.Run("nothing qualifies", func(t *testing.T) {
		if got := FirstParagraph("# Only\n\n## Headings\n", 20); got != "" {
			t.Errorf("FirstParagraph = %q, want empty", got)
		}
	})
}
