// Package chunker splits document text into overlapping chunks sized
// for embedding and prompt assembly. Every chunk except the first
// begins with the trailing overlap of its predecessor, so stitching
// chunks back together in index order (dropping each chunk's leading
// overlap) recovers the source text.
package chunker

import (
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/carepilot/docintel/internal/model"
)

// Strategy selects the chunk boundary heuristic.
type Strategy string

const (
	StrategyFixed     Strategy = "fixed"
	StrategySentence  Strategy = "sentence"
	StrategyParagraph Strategy = "paragraph"
)

// ParseStrategy validates a strategy name from config.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyFixed, StrategySentence, StrategyParagraph:
		return Strategy(s), nil
	}
	return "", eris.Errorf("chunker: unknown strategy %q", s)
}

// Config sizes the chunk windows. Overlap must be smaller than
// MaxChars; both count runes, not bytes.
type Config struct {
	Strategy Strategy
	MaxChars int
	Overlap  int
}

// Split divides text into ordered overlapping chunks. It is pure text
// manipulation and cannot fail: empty input yields a single empty
// chunk, and input at or under MaxChars is returned whole.
func Split(text string, cfg Config) []model.Chunk {
	runes := []rune(text)
	if len(runes) <= cfg.MaxChars {
		return []model.Chunk{{Index: 0, Text: text}}
	}

	var parts []string
	switch cfg.Strategy {
	case StrategyParagraph:
		parts = accumulate(paragraphSpans(runes), cfg.MaxChars, cfg.Overlap)
	case StrategyFixed:
		parts = fixedSplit(runes, cfg.MaxChars, cfg.Overlap, true)
	default:
		parts = accumulate(sentenceSpans(runes), cfg.MaxChars, cfg.Overlap)
	}

	chunks := make([]model.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = model.Chunk{Index: i, Text: p}
	}
	return chunks
}

// sentenceSpans cuts text after sentence-ending punctuation followed
// by whitespace and an upper-case letter. The whitespace stays with
// the preceding span so that concatenating all spans yields the input
// unchanged.
func sentenceSpans(runes []rune) [][]rune {
	var spans [][]rune
	start := 0
	i := 0
	for i < len(runes) {
		if !isSentenceEnd(runes[i]) {
			i++
			continue
		}
		// Consume the punctuation run, then the whitespace run.
		for i < len(runes) && isSentenceEnd(runes[i]) {
			i++
		}
		ws := i
		for ws < len(runes) && unicode.IsSpace(runes[ws]) {
			ws++
		}
		if ws == i || ws == len(runes) || !unicode.IsUpper(runes[ws]) {
			continue
		}
		spans = append(spans, runes[start:ws])
		start, i = ws, ws
	}
	if start < len(runes) {
		spans = append(spans, runes[start:])
	}
	return spans
}

// paragraphSpans cuts on blank lines, keeping each separator run
// attached to the span before it.
func paragraphSpans(runes []rune) [][]rune {
	var spans [][]rune
	start := 0
	i := 0
	for i < len(runes) {
		if runes[i] != '\n' || i+1 >= len(runes) || runes[i+1] != '\n' {
			i++
			continue
		}
		for i < len(runes) && (runes[i] == '\n' || runes[i] == '\r') {
			i++
		}
		spans = append(spans, runes[start:i])
		start = i
	}
	if start < len(runes) {
		spans = append(spans, runes[start:])
	}
	return spans
}

// accumulate packs spans into chunks of at most maxChars, seeding each
// new chunk with the previous chunk's trailing overlap. A single span
// longer than maxChars is hard-cut with the fixed window.
func accumulate(spans [][]rune, maxChars, overlap int) []string {
	var chunks []string
	var buf []rune

	flush := func() {
		chunks = append(chunks, string(buf))
		buf = tail(buf, overlap)
	}

	for _, span := range spans {
		if len(buf) > 0 && len(buf)+len(span) > maxChars {
			flush()
		}
		if len(span) > maxChars {
			if len(buf) > 0 && len(chunks) == 0 {
				// keep any unflushed lead-in before the oversized span
				chunks = append(chunks, string(buf))
				buf = tail(buf, overlap)
			}
			pieces := fixedSplit(append(buf, span...), maxChars, overlap, false)
			for _, p := range pieces[:len(pieces)-1] {
				chunks = append(chunks, p)
			}
			buf = []rune(pieces[len(pieces)-1])
			continue
		}
		buf = append(buf, span...)
	}
	if len(buf) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(buf))
	}
	return chunks
}

// fixedSplit slides a maxChars window with overlap retreat. When snap
// is set, the right edge backs up to the nearest sentence or line
// boundary found past the midpoint of the window.
func fixedSplit(runes []rune, maxChars, overlap int, snap bool) []string {
	if len(runes) <= maxChars {
		return []string{string(runes)}
	}
	var out []string
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		if snap {
			if b := snapBoundary(runes, start, end); b > 0 {
				end = b
			}
		}
		out = append(out, string(runes[start:end]))
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// snapBoundary looks backward from end for a boundary past the window
// midpoint; returns 0 when none exists.
func snapBoundary(runes []rune, start, end int) int {
	mid := start + (end-start)/2
	for i := end - 1; i > mid; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 2
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func tail(runes []rune, n int) []rune {
	if n <= 0 || len(runes) == 0 {
		return nil
	}
	if len(runes) <= n {
		return append([]rune(nil), runes...)
	}
	return append([]rune(nil), runes[len(runes)-n:]...)
}
