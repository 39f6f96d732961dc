package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble stitches chunks back together by stripping each chunk's
// leading overlap (the suffix it shares with the text so far).
func reassemble(t *testing.T, chunks []string, overlap int) string {
	t.Helper()
	if len(chunks) == 0 {
		return ""
	}
	out := chunks[0]
	for _, c := range chunks[1:] {
		cr := []rune(c)
		max := overlap
		if max > len(cr) {
			max = len(cr)
		}
		k := -1
		for n := max; n >= 0; n-- {
			if strings.HasSuffix(out, string(cr[:n])) {
				k = n
				break
			}
		}
		require.GreaterOrEqual(t, k, 0, "chunk does not continue the text")
		out += string(cr[k:])
	}
	return out
}

func chunkTexts(text string, cfg Config) []string {
	var out []string
	for _, c := range Split(text, cfg) {
		out = append(out, c.Text)
	}
	return out
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	for _, s := range []Strategy{StrategyFixed, StrategySentence, StrategyParagraph} {
		chunks := Split("short text", Config{Strategy: s, MaxChars: 100, Overlap: 20})
		require.Len(t, chunks, 1, "strategy %s", s)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, "short text", chunks[0].Text)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	chunks := Split("", Config{Strategy: StrategySentence, MaxChars: 100, Overlap: 20})
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Text)
}

func TestSplitFixedReconstruction(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	cfg := Config{Strategy: StrategyFixed, MaxChars: 200, Overlap: 50}

	parts := chunkTexts(text, cfg)
	require.Greater(t, len(parts), 1)
	assert.Equal(t, text, reassemble(t, parts, cfg.Overlap))
}

func TestSplitFixedBound(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma delta epsilon. ", 60)
	cfg := Config{Strategy: StrategyFixed, MaxChars: 150, Overlap: 30}

	for _, p := range chunkTexts(text, cfg) {
		assert.LessOrEqual(t, len([]rune(p)), cfg.MaxChars)
	}
}

func TestSplitFixedSnapsToSentenceBoundary(t *testing.T) {
	// Sentences short enough that a boundary always falls in the back
	// half of the window, so no chunk should end mid-word.
	text := strings.Repeat("Member pays the copay at each visit. ", 30)
	cfg := Config{Strategy: StrategyFixed, MaxChars: 120, Overlap: 20}

	parts := chunkTexts(text, cfg)
	require.Greater(t, len(parts), 2)
	for _, p := range parts[:len(parts)-1] {
		assert.True(t, strings.HasSuffix(p, ". ") || strings.HasSuffix(p, "."),
			"chunk should end on a sentence boundary: %q", p)
	}
}

func TestSplitSentenceKeepsSentencesWhole(t *testing.T) {
	text := "The plan covers preventive care at no cost. Deductible applies to specialist visits. " +
		"Emergency room visits carry a copay of eighty dollars. Out of network services are " +
		"reimbursed at sixty percent. Prior authorization is required for imaging studies."
	cfg := Config{Strategy: StrategySentence, MaxChars: 120, Overlap: 30}

	parts := chunkTexts(text, cfg)
	require.Greater(t, len(parts), 1)
	assert.Equal(t, text, reassemble(t, parts, cfg.Overlap))
	// No chunk besides the hard-cut case should exceed the bound.
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), cfg.MaxChars)
	}
}

func TestSplitSentenceHardCutsOversizedSentence(t *testing.T) {
	long := "All services rendered by participating providers are subject to " +
		strings.Repeat("terms and conditions ", 30) + "of the master agreement"
	cfg := Config{Strategy: StrategySentence, MaxChars: 100, Overlap: 20}

	parts := chunkTexts(long, cfg)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), cfg.MaxChars)
	}
	assert.Equal(t, long, reassemble(t, parts, cfg.Overlap))
}

func TestSplitParagraphReconstruction(t *testing.T) {
	var paras []string
	for i := 0; i < 12; i++ {
		paras = append(paras, "Benefit period begins on the first day of January. Claims must be filed within ninety days.")
	}
	text := strings.Join(paras, "\n\n")
	cfg := Config{Strategy: StrategyParagraph, MaxChars: 250, Overlap: 40}

	parts := chunkTexts(text, cfg)
	require.Greater(t, len(parts), 1)
	assert.Equal(t, text, reassemble(t, parts, cfg.Overlap))
}

func TestSplitParagraphFallsBackOnLongParagraph(t *testing.T) {
	long := strings.Repeat("Coverage details continue without a break ", 20)
	text := "Intro paragraph.\n\n" + long + "\n\nClosing paragraph."
	cfg := Config{Strategy: StrategyParagraph, MaxChars: 150, Overlap: 30}

	parts := chunkTexts(text, cfg)
	require.Greater(t, len(parts), 2)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), cfg.MaxChars)
	}
	assert.Equal(t, text, reassemble(t, parts, cfg.Overlap))
}

func TestSplitIndicesOrdered(t *testing.T) {
	text := strings.Repeat("Premium payments are due monthly. ", 40)
	chunks := Split(text, Config{Strategy: StrategySentence, MaxChars: 120, Overlap: 20})
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("sentence")
	require.NoError(t, err)
	assert.Equal(t, StrategySentence, s)

	_, err = ParseStrategy("token")
	assert.Error(t, err)
}

func TestSentenceSpansConcatIdentity(t *testing.T) {
	text := "First rule applies. Second rule follows! Does the third rule apply? Yes it does."
	var got string
	for _, sp := range sentenceSpans([]rune(text)) {
		got += string(sp)
	}
	assert.Equal(t, text, got)
}

func TestSentenceSpansIgnoresAbbreviationLikeStops(t *testing.T) {
	// Lower-case continuation after the period shouldn't split.
	text := "Visit dr. smith for details. Then call the plan."
	spans := sentenceSpans([]rune(text))
	require.Len(t, spans, 2)
	assert.Equal(t, "Visit dr. smith for details. ", string(spans[0]))
}
