// Package chunker splits extracted book text into bounded pieces for
// per-chunk summarization, preferring sentence and line boundaries.
package chunker

import "strings"

// Chunk is one bounded piece of a document, indexed by its position.
type Chunk struct {
	Index int
	Text  string
}

// maxLookback caps how far back Split searches for a sentence boundary,
// regardless of chunk size.
const maxLookback = 5000

// Split walks text from an advancing cursor and cuts it into chunks of at
// most maxSize characters. Each interior cut is pulled back to just after
// the last '.', '!', '?' or newline found within the lookback window
// (min(5000, 5% of maxSize) characters); when no boundary exists in the
// window the chunk is cut hard at maxSize. Pieces that are empty after
// trimming are skipped, but the cursor still advances, so the walk always
// terminates. Chunk indexes are dense and 0-based.
func Split(text string, maxSize int) []Chunk {
	if maxSize <= 0 || text == "" {
		return nil
	}

	runes := []rune(text)
	window := maxSize * 5 / 100
	if window > maxLookback {
		window = maxLookback
	}

	var chunks []Chunk
	cursor := 0
	for cursor < len(runes) {
		end := cursor + maxSize
		if end > len(runes) {
			end = len(runes)
		}

		// Only interior cuts get boundary adjustment; the final piece
		// always runs to the end of the text.
		if end < len(runes) && window > 0 {
			lo := end - window
			if lo < cursor {
				lo = cursor
			}
			for i := end - 1; i >= lo; i-- {
				if isBoundary(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		piece := strings.TrimSpace(string(runes[cursor:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: piece})
		}
		cursor = end
	}

	return chunks
}

func isBoundary(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}
