package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/chunker"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/llm"
)

// ChunkResult pairs a chunk index with the fragment it produced. A failed
// chunk yields an empty fragment and zero usage, never a missing entry.
type ChunkResult struct {
	Index  int
	Text   string
	Tokens int
}

// Transform runs one generation call over a piece of text.
type Transform func(ctx context.Context, text string) (llm.Result, error)

// BatchProgress reports the state of the extraction phase after a batch of
// concurrent calls has settled.
type BatchProgress struct {
	Completed   int
	Total       int
	Elapsed     time.Duration
	BatchTokens int
}

// MaxRetries bounds the retry loop for retryable generation errors.
const MaxRetries = 3

// RunBatches fans the chunks out to transform in consecutive batches of at
// most limit concurrent calls. Batches run strictly in order; calls within
// a batch race freely, each writing its result at the chunk's own index, so
// the returned sequence is deterministic regardless of completion order.
//
// A failed call is absorbed as an empty fragment and logged; it never aborts
// the batch. The two exceptions that do abort, at the next batch boundary,
// are credential rejections (retrying cannot help and every remaining call
// would fail the same way) and context cancellation.
func RunBatches(ctx context.Context, chunks []chunker.Chunk, limit int, transform Transform, maxRetries int, log *slog.Logger, onBatch func(BatchProgress)) ([]ChunkResult, error) {
	if limit < 1 {
		limit = 1
	}
	if maxRetries < 1 {
		maxRetries = MaxRetries
	}

	results := make([]ChunkResult, len(chunks))
	errs := make([]error, len(chunks))
	start := time.Now()

	for lo := 0; lo < len(chunks); lo += limit {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		hi := lo + limit
		if hi > len(chunks) {
			hi = len(chunks)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, chunk := range chunks[lo:hi] {
			g.Go(func() error {
				res, err := transformWithRetry(gctx, transform, chunk.Text, maxRetries, log, chunk.Index)
				if err != nil {
					errs[chunk.Index] = err
					results[chunk.Index] = ChunkResult{Index: chunk.Index}
					log.Warn("chunk summarization failed", "chunk", chunk.Index, "error", err)
					return nil
				}
				results[chunk.Index] = ChunkResult{Index: chunk.Index, Text: res.Text, Tokens: res.Tokens}
				return nil
			})
		}
		g.Wait()

		batchTokens := 0
		for i := lo; i < hi; i++ {
			if llm.IsAuthError(errs[i]) {
				return results, errs[i]
			}
			batchTokens += results[i].Tokens
		}

		if onBatch != nil {
			onBatch(BatchProgress{
				Completed:   hi,
				Total:       len(chunks),
				Elapsed:     time.Since(start),
				BatchTokens: batchTokens,
			})
		}
	}

	return results, nil
}

// transformWithRetry retries retryable failures with jittered exponential
// backoff; everything else fails the call on the first attempt.
func transformWithRetry(ctx context.Context, transform Transform, text string, maxRetries int, log *slog.Logger, chunkIdx int) (llm.Result, error) {
	var res llm.Result
	var lastErr error
	for attempt := range maxRetries {
		res, lastErr = transform(ctx, text)
		if lastErr == nil || !llm.IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable generation error", "chunk", chunkIdx, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return llm.Result{}, ctx.Err()
		}
	}
	return res, lastErr
}

// JoinFragments assembles the Draft: the non-empty fragments in index
// order, separated by blank lines.
func JoinFragments(results []ChunkResult) string {
	var parts []string
	for _, r := range results {
		if r.Text != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
