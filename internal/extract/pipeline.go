package extract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/chunker"
	"github.com/carepilot/docintel/internal/config"
	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/internal/registry"
	"github.com/carepilot/docintel/internal/store"
	"github.com/carepilot/docintel/pkg/anthropic"
	"github.com/carepilot/docintel/pkg/azopenai"
	"github.com/carepilot/docintel/pkg/pinecone"
)

// ErrNoChunks means the document carried no text to extract from.
var ErrNoChunks = eris.New("extract: document has no text to chunk")

// StepOutcome records how one category pass went. Parse failures do
// not abort a run; they surface here and in the logs.
type StepOutcome struct {
	Category string
	Pass     int
	Chunks   int
	Err      error
}

// RunResult is everything one pipeline run produced.
type RunResult struct {
	Run      *model.Run
	Record   *model.Record
	Outcomes []StepOutcome
}

// Pipeline orchestrates extraction over one document: chunking,
// per-category selection and extraction, merging, completeness
// analysis, bounded refinement, and finalization.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	registry  *registry.Registry
	extractor *StepExtractor
	selector  *ChunkSelector
	modelID   string
}

// NewPipeline wires a pipeline from its clients.
func NewPipeline(
	cfg *config.Config,
	st store.Store,
	reg *registry.Registry,
	ai anthropic.Client,
	embedder azopenai.Client,
	index pinecone.Client,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		registry:  reg,
		extractor: NewStepExtractor(ai, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens)),
		selector:  NewChunkSelector(embedder, index, cfg.Pinecone.PrivateNamespace, cfg.Pipeline.SelectorTopK),
		modelID:   cfg.Anthropic.Model,
	}
}

// Run executes the full pipeline for one document and persists the
// resulting record. The run row tracks progress so callers can poll.
func (p *Pipeline) Run(ctx context.Context, doc *model.Document) (*RunResult, error) {
	log := zap.L().With(
		zap.String("doc_id", doc.ID),
		zap.String("doc_type", string(doc.Type)),
		zap.String("user_id", doc.UserID),
	)
	log.Info("pipeline: starting extraction")

	set, err := p.registry.ForDocType(doc.Type)
	if err != nil {
		return nil, err
	}

	run := &model.Run{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		DocType:    doc.Type,
		Status:     model.RunInit,
		StartedAt:  time.Now().UTC(),
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	setStatus := func(status model.RunStatus) {
		run.Status = status
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	result := &RunResult{Run: run}

	record, err := p.run(ctx, log, set, doc, run, result, setStatus)
	if err != nil {
		run.Status = model.RunFailed
		run.Error = err.Error()
		p.finishRun(ctx, log, run)
		return result, err
	}

	record.RunID = run.ID
	setStatus(model.RunFinalizing)
	if err := p.store.SaveRecord(ctx, record); err != nil {
		run.Status = model.RunFailed
		run.Error = err.Error()
		p.finishRun(ctx, log, run)
		return result, eris.Wrap(err, "pipeline: save record")
	}

	run.Status = model.RunCompleted
	run.Missing = record.Missing
	p.finishRun(ctx, log, run)
	result.Record = record

	log.Info("pipeline: extraction complete",
		zap.String("record_id", record.ID),
		zap.Int("passes", run.Passes),
		zap.Int("missing", len(record.Missing)),
		zap.Float64("cost_usd", run.Usage.Cost),
	)
	return result, nil
}

func (p *Pipeline) run(
	ctx context.Context,
	log *zap.Logger,
	set *model.SchemaSet,
	doc *model.Document,
	run *model.Run,
	result *RunResult,
	setStatus func(model.RunStatus),
) (*model.Record, error) {
	setStatus(model.RunChunking)
	chunks := chunker.Split(doc.Text, chunker.Config{
		Strategy: chunker.Strategy(p.cfg.Chunking.Strategy),
		MaxChars: p.cfg.Chunking.MaxChars,
		Overlap:  p.cfg.Chunking.Overlap,
	})
	if len(chunks) == 0 || doc.Text == "" {
		return nil, ErrNoChunks
	}
	doc.NumChunks = len(chunks)
	log.Info("pipeline: document chunked", zap.Int("chunks", len(chunks)))

	fields := map[string]any{}

	// First full sweep over every category.
	run.Passes = 1
	for i := range set.Categories {
		fields = p.runCategory(ctx, log, set, &set.Categories[i], doc, chunks, fields, 1, result, setStatus)
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "pipeline: extraction interrupted")
		}
	}

	// Refinement: re-run the categories behind failed completeness
	// checks until everything passes, passes run out, or a pass stops
	// making progress.
	setStatus(model.RunAnalyzing)
	missing, cats := Analyze(set, fields)
	for pass := 2; pass <= p.cfg.Pipeline.MaxRefinePasses+1 && len(missing) > 0; pass++ {
		log.Info("pipeline: refining",
			zap.Int("pass", pass),
			zap.Strings("missing", missing),
		)
		run.Passes = pass
		for _, name := range cats {
			cat := set.Category(name)
			if cat == nil {
				continue
			}
			fields = p.runCategory(ctx, log, set, cat, doc, chunks, fields, pass, result, setStatus)
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "pipeline: extraction interrupted")
			}
		}

		setStatus(model.RunAnalyzing)
		newMissing, newCats := Analyze(set, fields)
		if len(newMissing) >= len(missing) {
			log.Info("pipeline: refinement stalled", zap.Int("still_missing", len(newMissing)))
			missing = newMissing
			break
		}
		missing, cats = newMissing, newCats
	}

	// Required fields still empty get one last pass over the whole
	// document before a placeholder fills them.
	fields = p.lastChance(ctx, log, set, doc, chunks, fields, run, result)

	fields = Finalize(set, fields, doc.ID)
	missing, _ = Analyze(set, fields)

	return &model.Record{
		ID:            uuid.NewString(),
		UserID:        doc.UserID,
		DocumentID:    doc.ID,
		DocType:       doc.Type,
		Fields:        fields,
		Missing:       missing,
		ExtractedDate: time.Now().UTC(),
	}, nil
}

// runCategory selects chunks, runs one extraction call, and merges the
// output. Failures are recorded as outcomes and otherwise swallowed so
// one bad category never sinks the run.
func (p *Pipeline) runCategory(
	ctx context.Context,
	log *zap.Logger,
	set *model.SchemaSet,
	cat *model.CategorySpec,
	doc *model.Document,
	chunks []model.Chunk,
	fields map[string]any,
	pass int,
	result *RunResult,
	setStatus func(model.RunStatus),
) map[string]any {
	setStatus(model.RunSelecting)
	selected := p.selectChunks(ctx, doc, chunks, cat.SeedQueries)

	setStatus(model.RunExtracting)
	out, err := p.extractor.Run(ctx, StepInput{
		Category:     cat,
		Chunks:       selected,
		PriorContext: contextDigest(set, fields),
	})
	if out != nil {
		p.addUsage(&result.Run.Usage, out.Usage, cat.Name)
	}
	result.Outcomes = append(result.Outcomes, StepOutcome{
		Category: cat.Name,
		Pass:     pass,
		Chunks:   len(selected),
		Err:      err,
	})
	if err != nil {
		log.Warn("pipeline: category extraction failed",
			zap.String("category", cat.Name),
			zap.Int("pass", pass),
			zap.Error(err),
		)
		return fields
	}

	setStatus(model.RunMerging)
	return Merge(set, fields, out.Fields)
}

// selectChunks orders chunks for the prompt: selector matches first,
// then the rest of the document in index order. Selection prioritizes,
// it never drops; a field's evidence can sit in a chunk no seed query
// matched.
func (p *Pipeline) selectChunks(ctx context.Context, doc *model.Document, chunks []model.Chunk, queries []string) []model.Chunk {
	indices := p.selector.Select(ctx, doc, queries)
	if len(indices) == 0 {
		return chunks
	}
	picked := make(map[int]bool, len(indices))
	out := make([]model.Chunk, 0, len(chunks))
	for _, idx := range indices {
		if idx >= 0 && idx < len(chunks) && !picked[idx] {
			picked[idx] = true
			out = append(out, chunks[idx])
		}
	}
	if len(out) == 0 {
		return chunks
	}
	for i, c := range chunks {
		if !picked[i] {
			out = append(out, c)
		}
	}
	return out
}

// lastChance re-runs the category of each still-empty required field
// with every chunk in the prompt, once per category.
func (p *Pipeline) lastChance(
	ctx context.Context,
	log *zap.Logger,
	set *model.SchemaSet,
	doc *model.Document,
	chunks []model.Chunk,
	fields map[string]any,
	run *model.Run,
	result *RunResult,
) map[string]any {
	retried := map[string]bool{}
	for _, cat := range set.Categories {
		for _, f := range cat.Fields {
			if !f.Required || !isEmptyScalar(fields[f.Name]) || retried[cat.Name] {
				continue
			}
			retried[cat.Name] = true
			log.Info("pipeline: retrying required field over full document",
				zap.String("field", f.Name),
				zap.String("category", cat.Name),
			)
			out, err := p.extractor.Run(ctx, StepInput{
				Category:     set.Category(cat.Name),
				Chunks:       chunks,
				PriorContext: contextDigest(set, fields),
			})
			if out != nil {
				p.addUsage(&run.Usage, out.Usage, cat.Name)
			}
			result.Outcomes = append(result.Outcomes, StepOutcome{
				Category: cat.Name,
				Pass:     run.Passes,
				Chunks:   len(chunks),
				Err:      err,
			})
			if err != nil {
				log.Warn("pipeline: required field retry failed",
					zap.String("field", f.Name),
					zap.Error(err),
				)
				continue
			}
			fields = Merge(set, fields, out.Fields)
		}
	}
	return fields
}

func (p *Pipeline) addUsage(total *model.TokenUsage, u anthropic.TokenUsage, phase string) {
	u.LogCost(p.modelID, phase)
	total.Add(model.TokenUsage{
		InputTokens:  int(u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens),
		OutputTokens: int(u.OutputTokens),
		Cost:         u.EstimateCost(p.modelID),
	})
}

func (p *Pipeline) finishRun(ctx context.Context, log *zap.Logger, run *model.Run) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := p.store.FinishRun(ctx, run); err != nil {
		log.Warn("pipeline: failed to finish run", zap.Error(err))
	}
}
