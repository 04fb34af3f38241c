package article

import (
	"encoding/json"
	"strings"
)

// Decode parses model output into a validated Document. Output wrapped in a
// Markdown code fence is unwrapped first.
func Decode(raw string) (*Document, error) {
	content := stripCodeFence(raw)
	if content == "" {
		return nil, &SchemaValidationError{Reason: "empty output"}
	}

	dec := json.NewDecoder(strings.NewReader(content))
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaValidationError{Reason: "decode " + truncate(content, 80), Err: err}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	normalised := strings.ReplaceAll(trimmed, "\r\n", "\n")
	lines := strings.Split(normalised, "\n")
	if len(lines) < 3 {
		return trimmed
	}

	lang := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(lines[0])), "```"))
	if lang != "" && lang != "json" {
		return trimmed
	}

	closing := -1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return trimmed
	}

	return strings.TrimSpace(strings.Join(lines[1:closing], "\n"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
