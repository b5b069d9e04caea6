package dispatch

import (
	"strings"
	"testing"

	"sublingo/internal/batcher"
	"sublingo/internal/sanitize"
)

func TestPromptUserPayload(t *testing.T) {
	p := Prompt{
		SourceLanguage: "Chinese",
		TargetLanguage: "Vietnamese",
		NameMap:        sanitize.NewNameMap(sanitize.Pair{Source: "吕布", Target: "Lữ Bố"}, sanitize.Pair{Source: "貂蝉", Target: "Điêu Thuyền"}),
	}
	got, err := p.User(batcher.Batch{Start: 11, End: 12, Lines: []string{"吕布来了", "<i>貂蝉</i> & 我"}})
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	for _, want := range []string{
		`NameMap: {"吕布":"Lữ Bố","貂蝉":"Điêu Thuyền"}`,
		"Tone: conversational",
		"ChunkIndices: [11-12]",
		`Lines: ["吕布来了","<i>貂蝉</i> & 我"]`,
		"Return a JSON array of 2 strings only.",
		"still contains Chinese characters",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, got)
		}
	}
}

func TestPromptSystemUsesLanguagesAndTone(t *testing.T) {
	got := Prompt{SourceLanguage: "Japanese", TargetLanguage: "English", Tone: "formal"}.System()
	if !strings.Contains(got, "Translate Japanese subtitle lines to English.") {
		t.Fatalf("system prompt languages missing: %s", got)
	}
	if !strings.Contains(got, "Use natural formal English") {
		t.Fatalf("system prompt tone missing: %s", got)
	}

	defaults := Prompt{}.System()
	if !strings.Contains(defaults, "Translate Chinese subtitle lines to Vietnamese.") {
		t.Fatalf("default languages missing: %s", defaults)
	}
}

func TestPromptEmptyNameMap(t *testing.T) {
	got, err := Prompt{}.User(batcher.Batch{Start: 1, End: 1, Lines: []string{""}})
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if !strings.HasPrefix(got, "NameMap: {}\n") {
		t.Fatalf("expected empty name map object, got %q", got)
	}
}
