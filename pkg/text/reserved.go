package text

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type textPart struct {
	text string
	// reserved is the index of the matched reserved token, or -1.
	reserved int
}

// reservedSet matches reserved tokens verbatim inside text, longest first.
type reservedSet struct {
	tokens []string
	index  map[string]int
	byLen  []string
}

func newReservedSet(tokens []string) (reservedSet, error) {
	rs := reservedSet{
		tokens: slices.Clone(tokens),
		index:  make(map[string]int, len(tokens)),
	}
	for i, t := range tokens {
		if t == "" {
			return reservedSet{}, fmt.Errorf("%w: empty reserved token", ErrInvalidVocabulary)
		}
		if _, dup := rs.index[t]; dup {
			return reservedSet{}, fmt.Errorf("%w: duplicate reserved token %q", ErrInvalidVocabulary, t)
		}
		rs.index[t] = i
	}
	rs.byLen = slices.Clone(rs.tokens)
	slices.SortStableFunc(rs.byLen, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return rs, nil
}

func (rs reservedSet) len() int { return len(rs.tokens) }

func (rs reservedSet) split(text string) []textPart {
	if len(rs.byLen) == 0 {
		return []textPart{{text: text, reserved: -1}}
	}
	var parts []textPart
	var buf strings.Builder
	for i := 0; i < len(text); {
		match := ""
		for _, tok := range rs.byLen {
			if strings.HasPrefix(text[i:], tok) {
				match = tok
				break
			}
		}
		if match != "" {
			if buf.Len() > 0 {
				parts = append(parts, textPart{text: buf.String(), reserved: -1})
				buf.Reset()
			}
			parts = append(parts, textPart{text: match, reserved: rs.index[match]})
			i += len(match)
			continue
		}
		buf.WriteByte(text[i])
		i++
	}
	if buf.Len() > 0 {
		parts = append(parts, textPart{text: buf.String(), reserved: -1})
	}
	return parts
}
