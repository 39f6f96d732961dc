package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/pkg/anthropic"
)

// systemPrompt is the shared role instruction for every category pass.
// One text so prompt caching hits on every call after the first.
const systemPrompt = `You are a healthcare document analyst. You extract structured data from insurance plan documents, explanation of benefits statements, and lab reports.

Rules:
- Use ONLY information present in the document excerpts you are given.
- Never invent values. Omit fields you cannot find.
- Dollar amounts and percentages are numbers, not strings.
- Dates use YYYY-MM-DD format.
- Your final output is a single JSON object and nothing else.`

// StepInput is one category extraction call.
type StepInput struct {
	Category *model.CategorySpec
	// Chunks are the excerpts to prompt with, most relevant first.
	Chunks []model.Chunk
	// PriorContext is a short digest of identity fields already
	// extracted, so later categories stay anchored to the same
	// plan or claim.
	PriorContext string
}

// StepResult is the parsed output of one category pass.
type StepResult struct {
	Fields map[string]any
	Usage  anthropic.TokenUsage
}

// StepExtractor runs single-category extraction calls against Claude.
type StepExtractor struct {
	ai        anthropic.Client
	model     string
	maxTokens int64
}

// NewStepExtractor builds an extractor bound to one model.
func NewStepExtractor(ai anthropic.Client, modelID string, maxTokens int64) *StepExtractor {
	return &StepExtractor{ai: ai, model: modelID, maxTokens: maxTokens}
}

// Run executes one category pass. A non-nil error with a *ParseError
// cause means the model answered but produced no usable JSON; the
// returned result still carries token usage in that case.
func (e *StepExtractor) Run(ctx context.Context, in StepInput) (*StepResult, error) {
	temp := 0.0
	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(in)},
		},
	})
	if err != nil {
		return nil, err
	}

	result := &StepResult{Usage: resp.Usage}
	fields, err := DecodeObject(resp.ExtractText())
	if err != nil {
		return result, err
	}
	result.Fields = fields
	return result, nil
}

// buildPrompt assembles the category instruction, the prior-context
// digest, the document excerpts, and the output-format reminder.
func buildPrompt(in StepInput) string {
	var sb strings.Builder

	sb.WriteString(in.Category.Prompt)
	sb.WriteString("\n\n")

	if in.PriorContext != "" {
		sb.WriteString("Context from earlier extraction passes:\n")
		sb.WriteString(in.PriorContext)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Document excerpts:\n\n")
	for _, c := range in.Chunks {
		fmt.Fprintf(&sb, "--- Excerpt %d ---\n%s\n\n", c.Index, c.Text)
	}

	sb.WriteString("Respond with a single JSON object only. No prose before or after.")
	return sb.String()
}

// contextDigest renders the non-empty scalar fields of a schema set's
// first category as "key: value" lines. Those are the identity fields
// (plan name, member name) later passes should stay consistent with.
func contextDigest(set *model.SchemaSet, fields map[string]any) string {
	if len(set.Categories) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range set.Categories[0].Fields {
		if f.Kind != model.KindScalar {
			continue
		}
		v, ok := fields[f.Name]
		if !ok || isEmptyScalar(v) {
			continue
		}
		fmt.Fprintf(&sb, "%s: %v\n", f.Name, v)
	}
	return strings.TrimRight(sb.String(), "\n")
}
