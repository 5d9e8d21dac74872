// Package chunker splits page text into overlapping passages sized for
// embedding and citation precision.
package chunker

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 1000

// DefaultOverlap is the default number of context characters shared with the
// preceding chunk.
const DefaultOverlap = 200

// DefaultMinSize is the default minimum chunk length; trailing fragments
// shorter than this are merged into the previous chunk.
const DefaultMinSize = 120

// Config controls chunk sizing.
type Config struct {
	Size    int
	Overlap int
	MinSize int
}

// Normalize clamps config values to usable ranges.
func (c Config) Normalize() Config {
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap >= c.Size {
		c.Overlap = c.Size / 4
	}
	if c.MinSize < 0 {
		c.MinSize = 0
	}
	if c.MinSize > c.Size {
		c.MinSize = c.Size
	}
	return c
}

// Chunk is a passage of page text. Start and End are the primary span: the
// half-open character range this chunk owns within the page. Primary spans of
// consecutive chunks are contiguous and non-overlapping, so concatenating
// text[Start:End] over all chunks reproduces the page exactly. Text carries
// up to Overlap characters of leading context from the previous chunk.
type Chunk struct {
	PageNumber int    `json:"pageNumber"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
}

// Split chunks one page of text. Empty input yields zero chunks, not an
// error. Pages shorter than the minimum size produce exactly one chunk
// covering the whole page.
func Split(pageNumber int, text string, cfg Config) []Chunk {
	cfg = cfg.Normalize()
	if len(text) == 0 {
		return nil
	}

	if len(text) <= cfg.Size {
		return []Chunk{{PageNumber: pageNumber, Start: 0, End: len(text), Text: text}}
	}

	chunks := make([]Chunk, 0, len(text)/(cfg.Size-cfg.Overlap)+1)
	start := 0
	for start < len(text) {
		end := start + cfg.Size
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapToBoundary(text, start, end)
		}

		if len(chunks) > 0 && len(text)-start < cfg.MinSize {
			// Trailing fragment below the minimum: fold it into the
			// previous chunk instead of emitting a sliver.
			last := &chunks[len(chunks)-1]
			last.End = len(text)
			last.Text = contextSlice(text, last.Start, last.End, cfg.Overlap)
			return chunks
		}

		chunks = append(chunks, Chunk{
			PageNumber: pageNumber,
			Start:      start,
			End:        end,
			Text:       contextSlice(text, start, end, cfg.Overlap),
		})
		start = end
	}
	return chunks
}

// snapToBoundary walks the cut point back to the nearest sentence or word
// break so chunks do not split words, without ever moving past the midpoint
// of the window.
func snapToBoundary(text string, start, end int) int {
	limit := start + (end-start)/2
	for i := end; i > limit; i-- {
		if i < len(text) && i >= 2 && text[i-2] == '.' && text[i-1] == ' ' {
			return i
		}
	}
	for i := end; i > limit; i-- {
		switch text[i-1] {
		case ' ', '\n', '\t':
			return i
		}
	}
	return end
}

func contextSlice(text string, start, end, overlap int) string {
	ctxStart := start - overlap
	if ctxStart < 0 {
		ctxStart = 0
	}
	return text[ctxStart:end]
}
