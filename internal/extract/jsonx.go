// Package extract implements the multi-pass document extraction
// engine: chunk selection against the vector index, per-category LLM
// extraction, field merging, completeness analysis, and the
// orchestrating pipeline.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// rawPreviewLimit caps how much model output a ParseError carries.
const rawPreviewLimit = 500

// ParseError reports model output that survived no decoding stage.
// Raw holds a truncated preview for logs.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: no JSON object found in model output: %s", e.Raw)
}

var (
	answerTagRe = regexp.MustCompile(`(?s)<answer>(.*?)</answer>`)
	fencedRe    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	reasoningRe = regexp.MustCompile(`(?s)<(thinking|reasoning|redacted_thinking)>.*?</(thinking|reasoning|redacted_thinking)>`)
)

// DecodeObject pulls a JSON object out of raw model output. Stages are
// tried in order: answer tags, fenced code block, reasoning-stripped
// balanced-brace scan, then a crude first-{ to last-} cut. Each stage
// must produce valid JSON or the next stage runs.
func DecodeObject(text string) (map[string]any, error) {
	if m := answerTagRe.FindStringSubmatch(text); m != nil {
		if obj, ok := tryDecode(m[1]); ok {
			return obj, nil
		}
	}

	if m := fencedRe.FindStringSubmatch(text); m != nil {
		if obj, ok := tryDecode(m[1]); ok {
			return obj, nil
		}
	}

	stripped := reasoningRe.ReplaceAllString(text, "")
	for _, cand := range balancedObjects(stripped) {
		if obj, ok := tryDecode(cand); ok {
			return obj, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := tryDecode(text[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, &ParseError{Raw: truncate(text, rawPreviewLimit)}
}

func tryDecode(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// balancedObjects returns each top-level {...} region of text, in
// order, tracking brace depth outside of string literals.
func balancedObjects(text string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					out = append(out, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
