package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRejectsDegenerateConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			require.Error(t, err)

			var chunkErr *ChunkingError
			require.ErrorAs(t, err, &chunkErr)
			assert.Equal(t, tt.size, chunkErr.Size)
			assert.Equal(t, tt.overlap, chunkErr.Overlap)
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	spans, err := Split("", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestSplitShortTextSingleSpan(t *testing.T) {
	spans, err := Split("short", 100, 10)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].Ordinal)
	assert.Equal(t, "short", spans[0].Text)
}

func TestSplitOverlap(t *testing.T) {
	spans, err := Split("abcdefghij", 4, 2)
	require.NoError(t, err)
	require.True(t, len(spans) > 1)

	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		assert.Equal(t, i, cur.Ordinal)
		assert.Equal(t, prev.End-2, cur.Start, "consecutive spans must overlap by 2 runes")
		assert.Equal(t, prev.Text[len(prev.Text)-2:], cur.Text[:2])
	}
}

func TestSplitReassembleRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"ascii", strings.Repeat("the torque value is 50 Nm. ", 40), 64, 16},
		{"cyrillic", strings.Repeat("момент затяжки болта М10 составляет 50 Нм. ", 30), 50, 10},
		{"no overlap", strings.Repeat("x", 1000), 128, 0},
		{"exact multiple", strings.Repeat("ab", 64), 32, 8},
		{"single rune", "я", 512, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans, err := Split(tt.text, tt.size, tt.overlap)
			require.NoError(t, err)
			assert.Equal(t, tt.text, Reassemble(spans))
		})
	}
}

func TestSplitRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("Ёжик", 100)
	spans, err := Split(text, 7, 3)
	require.NoError(t, err)

	for _, span := range spans {
		assert.True(t, len([]rune(span.Text)) <= 7)
	}
	assert.Equal(t, text, Reassemble(spans))
}
