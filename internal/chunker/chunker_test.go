package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	assert.Empty(t, Split(1, "", Config{}))
}

func TestSplitShortPageSingleChunk(t *testing.T) {
	text := "This agreement is made between the parties."
	chunks := Split(1, text, Config{Size: 1000, Overlap: 200, MinSize: 120})

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[0].End)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 1, chunks[0].PageNumber)
}

func TestSplitPrimarySpansReconstructText(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("The supplier shall deliver the goods within thirty days of purchase order receipt. ")
	}
	text := b.String()

	chunks := Split(3, text, Config{Size: 900, Overlap: 150, MinSize: 100})
	require.Greater(t, len(chunks), 1)

	var rebuilt strings.Builder
	prevEnd := 0
	for _, c := range chunks {
		require.Equal(t, prevEnd, c.Start, "primary spans must be contiguous")
		require.Less(t, c.Start, c.End)
		rebuilt.WriteString(text[c.Start:c.End])
		prevEnd = c.End
	}
	assert.Equal(t, text, rebuilt.String())
	assert.Equal(t, len(text), chunks[len(chunks)-1].End)
}

func TestSplitOverlapContext(t *testing.T) {
	text := strings.Repeat("clause one. ", 300)
	cfg := Config{Size: 500, Overlap: 100, MinSize: 50}

	chunks := Split(1, text, cfg)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		if i == 0 {
			assert.Equal(t, text[c.Start:c.End], c.Text)
			continue
		}
		// Context prefix comes from the previous chunk's tail.
		ctxStart := c.Start - cfg.Overlap
		if ctxStart < 0 {
			ctxStart = 0
		}
		assert.Equal(t, text[ctxStart:c.End], c.Text)
	}
}

func TestSplitTrailingFragmentMerged(t *testing.T) {
	// 1030 chars: a naive split leaves a 30-char tail below MinSize.
	text := strings.Repeat("x", 1000) + strings.Repeat("y", 30)
	chunks := Split(1, text, Config{Size: 1000, Overlap: 0, MinSize: 120})

	require.Len(t, chunks, 1)
	assert.Equal(t, len(text), chunks[0].End)
}

func TestSplitDoesNotCutWords(t *testing.T) {
	text := strings.Repeat("indemnification ", 200)
	chunks := Split(1, text, Config{Size: 400, Overlap: 50, MinSize: 40})
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks[:len(chunks)-1] {
		assert.Equal(t, byte(' '), text[c.End-1], "cut should land on a word boundary")
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Size: 0, Overlap: -1, MinSize: -5}.Normalize()
	assert.Equal(t, DefaultSize, cfg.Size)
	assert.Equal(t, 0, cfg.Overlap)
	assert.Equal(t, 0, cfg.MinSize)

	cfg = Config{Size: 100, Overlap: 100, MinSize: 500}.Normalize()
	assert.Equal(t, 25, cfg.Overlap)
	assert.Equal(t, 100, cfg.MinSize)
}
