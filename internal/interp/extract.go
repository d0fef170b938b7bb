package interp

import (
	"fmt"

	"genelab/internal/grammar"
)

// Span is a half-open byte range [Start, End) within a block.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Extract parses a bracketed list that opens at block[pos]. Only the given
// open/close pair affects the depth; BOOL and INT payload bytes are skipped so
// a payload never reads as a bracket. It returns the spans of the depth-1
// elements and the index just past the matching close. An empty list yields
// no spans.
func Extract(block []byte, pos int, open, sep, close byte) ([]Span, int, error) {
	if pos >= len(block) || block[pos] != open {
		return nil, 0, fmt.Errorf("%w: expected opening byte %d at %d", grammar.ErrSyntax, open, pos)
	}

	var spans []Span
	depth := 0
	start := pos + 1
	for i := pos; i < len(block); i++ {
		switch b := block[i]; {
		case b == grammar.Bool || b == grammar.Int:
			i++
		case b == open:
			depth++
		case b == close:
			depth--
			if depth == 0 {
				spans = append(spans, Span{Start: start, End: i})
				if len(spans) == 1 && spans[0].Len() == 0 {
					spans = nil
				}
				return spans, i + 1, nil
			}
		case b == sep && depth == 1:
			spans = append(spans, Span{Start: start, End: i})
			start = i + 1
		}
	}
	return nil, 0, fmt.Errorf("%w: unbalanced brackets opened at %d", grammar.ErrSyntax, pos)
}
