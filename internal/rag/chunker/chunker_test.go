package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

func makeText(n int) string {
	words := []string{"revenue", "grew", "in", "the", "data", "center", "segment."}
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		if i%17 == 16 {
			b.WriteString("\n\n")
		}
		b.WriteString(words[i%len(words)])
	}
	return b.String()[:n]
}

func reconstruct(chunks []commonModels.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c.Content)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func chunksOfPage(chunks []commonModels.Chunk, page int) []commonModels.Chunk {
	var out []commonModels.Chunk
	for _, c := range chunks {
		if c.PageNum == page {
			out = append(out, c)
		}
	}
	return out
}

func TestSplit_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"default_params_prose", makeText(5000), 400, 20},
		{"no_overlap", makeText(1234), 100, 0},
		{"large_overlap", makeText(900), 50, 49},
		{"no_separators", strings.Repeat("x", 1001), 400, 20},
		{"tiny_window", makeText(300), 2, 1},
		{"unicode", strings.Repeat("Umsatz über Erwartungen — 数据中心. ", 40), 64, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := []commonModels.Page{{Number: 1, Content: tt.text, Source: "doc.pdf"}}
			chunks, err := Split(pages, Options{ChunkSize: tt.size, ChunkOverlap: tt.overlap})
			if err != nil {
				t.Fatalf("Split failed: %v", err)
			}
			if len(chunks) == 0 {
				t.Fatal("expected chunks")
			}

			for i, c := range chunks {
				if l := utf8.RuneCountInString(c.Content); l > tt.size {
					t.Errorf("chunk %d has %d runes, limit %d", i, l, tt.size)
				}
				if i == 0 && c.OverlapWithPrevious != 0 {
					t.Errorf("first chunk overlap = %d, want 0", c.OverlapWithPrevious)
				}
				if i > 0 {
					prev := []rune(chunks[i-1].Content)
					cur := []rune(c.Content)
					tail := string(prev[len(prev)-tt.overlap:])
					head := string(cur[:tt.overlap])
					if tail != head {
						t.Errorf("chunk %d does not share %d runes with chunk %d: %q vs %q", i, tt.overlap, i-1, tail, head)
					}
					if c.OverlapWithPrevious != tt.overlap {
						t.Errorf("chunk %d overlap = %d, want %d", i, c.OverlapWithPrevious, tt.overlap)
					}
				}
				if c.ChunkPageOrder != i || c.Seq != i {
					t.Errorf("chunk %d order/seq = %d/%d", i, c.ChunkPageOrder, c.Seq)
				}
			}

			if got := reconstruct(chunks, tt.overlap); got != tt.text {
				t.Errorf("reconstructed text differs from the source (got %d runes, want %d)",
					utf8.RuneCountInString(got), utf8.RuneCountInString(tt.text))
			}
		})
	}
}

func TestSplit_ThreePageScenario(t *testing.T) {
	var pages []commonModels.Page
	for p := 1; p <= 3; p++ {
		pages = append(pages, commonModels.Page{Number: p, Content: makeText(1000), Source: "report.pdf"})
	}

	chunks, err := Split(pages, DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for p := 1; p <= 3; p++ {
		pageChunks := chunksOfPage(chunks, p)
		if len(pageChunks) < 3 {
			t.Errorf("page %d: expected at least 3 chunks, got %d", p, len(pageChunks))
		}
		for i := 1; i < len(pageChunks); i++ {
			prev := pageChunks[i-1].Content
			if !strings.HasPrefix(pageChunks[i].Content, prev[len(prev)-20:]) {
				t.Errorf("page %d chunk %d does not start with the last 20 characters of chunk %d", p, i, i-1)
			}
		}
		if reconstruct(pageChunks, 20) != pages[p-1].Content {
			t.Errorf("page %d could not be reconstructed", p)
		}
	}

	for i, c := range chunks {
		if c.Seq != i {
			t.Errorf("seq of chunk %d = %d", i, c.Seq)
		}
		if c.Source != "report.pdf" {
			t.Errorf("chunk %d lost its source metadata", i)
		}
	}
}

func TestSplit_ShortPageIsSingleChunk(t *testing.T) {
	pages := []commonModels.Page{
		{Number: 1, Content: "NVIDIA reported record revenue."},
		{Number: 2, Content: ""},
		{Number: 3, Content: strings.Repeat("a", 400)},
	}
	chunks, err := Split(pages, DefaultOptions())
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != pages[0].Content || chunks[0].PageNum != 1 {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].Content != pages[2].Content || chunks[1].PageNum != 3 {
		t.Errorf("unexpected second chunk: %+v", chunks[1])
	}
}

func TestSplit_PrefersNaturalBoundaries(t *testing.T) {
	text := strings.Repeat("word ", 30) + "\n\n" + strings.Repeat("next ", 30)
	chunks, err := Split([]commonModels.Page{{Number: 1, Content: text}}, Options{ChunkSize: 160, ChunkOverlap: 10})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !strings.HasSuffix(chunks[0].Content, "\n\n") {
		t.Errorf("expected the first chunk to end on the paragraph break, got %q", chunks[0].Content)
	}

	text = strings.Repeat("abcdefghij", 10)
	chunks, _ = Split([]commonModels.Page{{Number: 1, Content: text}}, Options{ChunkSize: 30, ChunkOverlap: 5})
	if len([]rune(chunks[0].Content)) != 30 {
		t.Errorf("expected a hard cut at 30 runes, got %d", len([]rune(chunks[0].Content)))
	}
}

func TestSplit_InvalidOptions(t *testing.T) {
	pages := []commonModels.Page{{Number: 1, Content: "text"}}
	tests := []Options{
		{ChunkSize: 20, ChunkOverlap: 20},
		{ChunkSize: 20, ChunkOverlap: 25},
		{ChunkSize: 0, ChunkOverlap: 0},
		{ChunkSize: 10, ChunkOverlap: -1},
	}
	for _, opts := range tests {
		_, err := Split(pages, opts)
		if !errors.Is(err, commonModels.ErrConfiguration) {
			t.Errorf("Split(%+v) error = %v, want ConfigurationError", opts, err)
		}
	}
}
