package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/chunker"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/config"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/history"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/llm"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/parser"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/prompt"
)

// Generator is the LLM capability the pipeline drives: one prompt with a
// system instruction in, generated text and a token count out.
type Generator interface {
	Generate(ctx context.Context, promptText, system string) (llm.Result, error)
	Model() string
}

// Recorder persists terminal run records.
type Recorder interface {
	Save(rec history.Record) error
}

// Progress weights per stage. Extraction owns 0-60; a single-chunk run
// skips consolidation and jumps to 70 instead of the 80 a real
// consolidation earns; polishing completes at 100.
const (
	progressExtractionWeight = 60
	progressSingleChunk      = 70
	progressConsolidated     = 80
	progressDone             = 100
)

// Worker processes one summarization run at a time through the full
// pipeline: parse, chunk, extract, consolidate, polish, record.
type Worker struct {
	gen     Generator
	history Recorder
	log     *slog.Logger
	cfg     config.Config
}

func NewWorker(gen Generator, hist Recorder, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		gen:     gen,
		history: hist,
		log:     log,
		cfg:     cfg,
	}
}

// Process drives a run to a terminal state. It never leaves the run
// non-terminal: every exit path resolves to completed (possibly partial)
// or error.
func (w *Worker) Process(ctx context.Context, run *Run) {
	log := w.log.With("run_id", run.ID, "filename", run.Filename)
	run.Start()
	defer run.ReleaseFileData()

	system := prompt.System(run.Language)

	// Phase 1: Parse.
	run.SetPhase(PhaseParsing)
	p, err := parser.ForFile(run.Filename)
	if err != nil {
		w.fail(run, log, PhaseParsing, err)
		return
	}
	text, err := p.Parse(bytes.NewReader(run.FileData()), run.Filename)
	if err != nil {
		w.fail(run, log, PhaseParsing, err)
		return
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < w.cfg.MinTextLength {
		w.fail(run, log, PhaseParsing, &parser.ParseError{
			Filename: run.Filename,
			Reason:   "extracted text too short, file looks empty or encrypted",
		})
		return
	}

	est := Estimator{RatePerChar: w.cfg.RatePerChar, Floor: w.cfg.EstimateFloor}
	run.SetEstimate(est.Seed(len([]rune(text))))

	// Phase 2: Chunk.
	run.SetPhase(PhaseChunking)
	chunks := chunker.Split(text, w.cfg.MaxChunkSize)
	if len(chunks) == 0 {
		w.fail(run, log, PhaseChunking, ErrNoUsableFragments)
		return
	}
	log.Info("chunked document", "chunks", len(chunks), "chars", len(text))

	// Phase 3: Summarize chunks with bounded concurrency.
	run.SetPhase(PhaseSummarizing)
	transform := func(ctx context.Context, chunkText string) (llm.Result, error) {
		return w.gen.Generate(ctx, prompt.Extract(run.Language, chunkText), system)
	}
	results, err := RunBatches(ctx, chunks, w.cfg.MaxConcurrent, transform, w.cfg.MaxRetries, log,
		func(bp BatchProgress) {
			pct := int(math.Round(float64(bp.Completed) / float64(bp.Total) * progressExtractionWeight))
			run.AdvanceProgress(pct)
			run.AddTokens(bp.BatchTokens)
			run.SetEstimate(est.Update(bp.Elapsed.Seconds(), bp.Completed, bp.Total, w.cfg.OverheadFactor))
		})
	if err != nil {
		w.fail(run, log, PhaseSummarizing, err)
		return
	}

	draft := JoinFragments(results)
	if draft == "" {
		w.fail(run, log, PhaseSummarizing, ErrNoUsableFragments)
		return
	}

	// Phase 4: Consolidate. A single-chunk document has nothing to merge:
	// its fragment goes straight to polishing.
	consolidated := draft
	if len(chunks) == 1 {
		run.AdvanceProgress(progressSingleChunk)
	} else {
		run.SetPhase(PhaseConsolidating)
		res, err := w.gen.Generate(ctx, prompt.Consolidate(run.Language, draft), system)
		if err != nil {
			w.recoverOrFail(run, log, &StageError{Phase: PhaseConsolidating, Err: err}, draft)
			return
		}
		run.AddTokens(res.Tokens)
		consolidated = res.Text
		run.AdvanceProgress(progressConsolidated)
	}

	// Phase 5: Polish.
	run.SetPhase(PhasePolishing)
	res, err := w.gen.Generate(ctx, prompt.Polish(run.Language, consolidated), system)
	if err != nil {
		w.recoverOrFail(run, log, &StageError{Phase: PhasePolishing, Err: err}, draft)
		return
	}
	run.AddTokens(res.Tokens)
	run.AdvanceProgress(progressDone)

	w.complete(run, log, res.Text, false)
}

// recoverOrFail applies the partial-failure policy: when a late stage dies
// but the draft holds enough material, the run resolves as completed with
// the raw draft as its labeled partial output. Otherwise the stage error is
// fatal.
func (w *Worker) recoverOrFail(run *Run, log *slog.Logger, stageErr *StageError, draft string) {
	if len([]rune(draft)) >= w.cfg.MinPartialDraft {
		log.Warn("late stage failed, resolving run with raw draft",
			"phase", stageErr.Phase, "error", stageErr.Err, "draft_chars", len(draft))
		w.complete(run, log, draft, true)
		return
	}
	w.fail(run, log, stageErr.Phase, stageErr)
}

func (w *Worker) complete(run *Run, log *slog.Logger, summary string, partial bool) {
	rec := history.Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Filename:  run.Filename,
		Language:  run.Language,
		Summary:   summary,
		Model:     w.gen.Model(),
		Tokens:    run.Tokens(),
		Partial:   partial,
	}
	if err := w.history.Save(rec); err != nil {
		log.Error("failed to save run record", "error", err)
	}
	run.Complete(summary, partial, rec.ID)
	log.Info("run completed", "partial", partial, "tokens", rec.Tokens, "record_id", rec.ID)
}

func (w *Worker) fail(run *Run, log *slog.Logger, phase Phase, err error) {
	kind := KindOf(err)
	log.Error("run failed", "phase", phase, "kind", string(kind), "error", err)
	run.Fail(kind, err)
}
