package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"sublingo/internal/batcher"
	"sublingo/internal/sanitize"
)

// Prompt builds the system instruction and per-batch user payload.
type Prompt struct {
	SourceLanguage string
	TargetLanguage string
	Tone           string
	NameMap        sanitize.NameMap
}

func (p Prompt) languages() (string, string) {
	source := strings.TrimSpace(p.SourceLanguage)
	if source == "" {
		source = "Chinese"
	}
	target := strings.TrimSpace(p.TargetLanguage)
	if target == "" {
		target = "Vietnamese"
	}
	return source, target
}

// System returns the system instruction sent with every request.
func (p Prompt) System() string {
	source, target := p.languages()
	tone := strings.TrimSpace(p.Tone)
	if tone == "" {
		tone = "conversational"
	}
	return fmt.Sprintf("You are a professional translator model. Translate %[1]s subtitle lines to %[2]s. "+
		`Output must be a JSON array of strings only (e.g. ["...", "..."]). `+
		"Do NOT include indices, timestamps, explanations, or any other text. "+
		"Preserve the number and order of lines exactly as input. "+
		"Remove any leading numbering in the input lines before translating. "+
		"Use natural %[3]s %[2]s fitting film subtitles. "+
		"Keep translations concise, preserve tone, and maintain name consistency (use provided name_map). "+
		"If unsure, translate literally but natural. "+
		"If input is empty string, output empty string for that line. "+
		"Output must be valid JSON.", source, target, tone)
}

// User returns the payload for one batch.
func (p Prompt) User(b batcher.Batch) (string, error) {
	source, target := p.languages()
	names, err := p.NameMap.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode name map: %w", err)
	}
	lines, err := marshalLines(b.Lines)
	if err != nil {
		return "", fmt.Errorf("encode lines: %w", err)
	}
	tone := strings.TrimSpace(p.Tone)
	if tone == "" {
		tone = "conversational"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "NameMap: %s\n", names)
	fmt.Fprintf(&sb, "Tone: %s\n", tone)
	fmt.Fprintf(&sb, "ChunkIndices: [%d-%d]\n", b.Start, b.End)
	fmt.Fprintf(&sb, "Lines: %s\n\n", lines)
	fmt.Fprintf(&sb, "Translate the Lines array from %s to %s. ", source, target)
	fmt.Fprintf(&sb, "Return a JSON array of %d strings only. ", len(b.Lines))
	sb.WriteString("Ensure the i-th output corresponds to the i-th input line. ")
	sb.WriteString("DO NOT add numbering or timestamps. ")
	sb.WriteString("DO NOT change punctuation meaningfully. ")
	sb.WriteString("If a name appears that is in NameMap, use that mapping. ")
	fmt.Fprintf(&sb, "If the translated line still contains %s characters, that counts as invalid.", source)
	return sb.String(), nil
}

func marshalLines(lines []string) ([]byte, error) {
	if lines == nil {
		lines = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(lines); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
