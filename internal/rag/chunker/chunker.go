package chunker

import (
	"time"

	"github.com/akolanti/pdfrag/internal/adapter/utils"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

// Separators ordered from "best" to "worst" for semantic meaning.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// A natural boundary is only accepted in the last 1/boundaryTolerance of the
// window; earlier than that the chunk would be cut too short.
const boundaryTolerance = 4

type Options struct {
	ChunkSize    int
	ChunkOverlap int
}

func DefaultOptions() Options {
	return Options{ChunkSize: config.DefaultChunkSize, ChunkOverlap: config.DefaultChunkOverlap}
}

// Split chunks every page on its own. Within a page consecutive chunks share
// exactly ChunkOverlap runes and no chunk is longer than ChunkSize runes.
func Split(pages []commonModels.Page, opts Options) ([]commonModels.Chunk, error) {
	if err := config.ValidateChunking(opts.ChunkSize, opts.ChunkOverlap); err != nil {
		return nil, commonModels.ConfigurationError("split", err)
	}

	ingestedAt := time.Now().UTC()
	var allChunks []commonModels.Chunk
	seq := 0

	for _, page := range pages {
		for i, span := range splitText(page.Content, opts.ChunkSize, opts.ChunkOverlap) {
			overlap := 0
			if i > 0 {
				overlap = opts.ChunkOverlap
			}
			allChunks = append(allChunks, commonModels.Chunk{
				Id:                  utils.GetNewUUID(),
				Content:             span.text,
				PageNum:             page.Number,
				Source:              page.Source,
				ChunkPageOrder:      i,
				Offset:              span.start,
				OverlapWithPrevious: overlap,
				Seq:                 seq,
				IngestedAt:          ingestedAt,
			})
			seq++
		}
	}
	return allChunks, nil
}

type span struct {
	text  string
	start int
}

func splitText(text string, limit int, overlap int) []span {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	// If text is already small enough, just return it
	if n <= limit {
		return []span{{text: text, start: 0}}
	}

	var spans []span
	start := 0
	for {
		end := start + limit
		if end >= n {
			spans = append(spans, span{text: string(runes[start:n]), start: start})
			return spans
		}

		// the cut has to leave room for progress: the next chunk starts at
		// end-overlap, which must lie after start
		minEnd := start + overlap + 1
		if tolerated := end - limit/boundaryTolerance; tolerated > minEnd {
			minEnd = tolerated
		}
		end = findBoundary(runes, minEnd, end)

		spans = append(spans, span{text: string(runes[start:end]), start: start})
		start = end - overlap
	}
}

// findBoundary returns the best cut position in [minEnd, maxEnd]. A cut
// position p means the chunk ends just before runes[p].
func findBoundary(runes []rune, minEnd, maxEnd int) int {
	for _, sep := range separators {
		if pos := lastSeparatorEnd(runes, []rune(sep), minEnd, maxEnd); pos > 0 {
			return pos
		}
	}
	// Hard cut if no separator found
	return maxEnd
}

// lastSeparatorEnd finds the right-most occurrence of sep whose end falls
// inside [minEnd, maxEnd] and returns that end. Whitespace separators are kept
// with the preceding chunk.
func lastSeparatorEnd(runes []rune, sep []rune, minEnd, maxEnd int) int {
	for end := maxEnd; end >= minEnd; end-- {
		begin := end - len(sep)
		if begin < 0 {
			return -1
		}
		if matches(runes[begin:end], sep) {
			return end
		}
	}
	return -1
}

func matches(window []rune, sep []rune) bool {
	for i := range sep {
		if window[i] != sep[i] {
			return false
		}
	}
	return true
}
