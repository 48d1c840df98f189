package chunker

import "fmt"

// ChunkingError reports a degenerate configuration where splitting cannot
// make progress.
type ChunkingError struct {
	Size    int
	Overlap int
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("invalid chunking config: size %d must be greater than overlap %d and positive", e.Size, e.Overlap)
}

// Span is one chunk of the source text. Start and End are rune offsets into
// the original text, so concatenating the non-overlapping portions of
// consecutive spans reconstructs the input exactly.
type Span struct {
	Ordinal int
	Start   int
	End     int
	Text    string
}

// Split cuts text into spans of at most size runes where consecutive spans
// overlap by overlap runes. Empty input yields no spans.
func Split(text string, size, overlap int) ([]Span, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ChunkingError{Size: size, Overlap: overlap}
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	var spans []Span
	for start, ordinal := 0, 0; start < len(runes); start, ordinal = start+step, ordinal+1 {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, Span{
			Ordinal: ordinal,
			Start:   start,
			End:     end,
			Text:    string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return spans, nil
}

// Reassemble joins spans back into the original text by skipping each span's
// overlap with its predecessor. It is the inverse of Split for spans produced
// by it, used to verify the round-trip property.
func Reassemble(spans []Span) string {
	runes := make([]rune, 0)
	prevEnd := 0
	for _, span := range spans {
		text := []rune(span.Text)
		skip := prevEnd - span.Start
		if skip < 0 {
			skip = 0
		}
		if skip > len(text) {
			skip = len(text)
		}
		runes = append(runes, text[skip:]...)
		prevEnd = span.End
	}
	return string(runes)
}
