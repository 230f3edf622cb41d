package text

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into runs of letters and digits. Reserved tokens are
// emitted whole. Punctuation runs are kept only when AlphanumOnly is false.
type Tokenizer struct {
	AlphanumOnly bool
	reserved     reservedSet
}

func NewTokenizer(alphanumOnly bool, reservedTokens ...string) (*Tokenizer, error) {
	rs, err := newReservedSet(reservedTokens)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{AlphanumOnly: alphanumOnly, reserved: rs}, nil
}

// ReservedTokens returns the tokens that are never split.
func (t *Tokenizer) ReservedTokens() []string {
	return append([]string(nil), t.reserved.tokens...)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (t *Tokenizer) Tokenize(s string) []string {
	var tokens []string
	for _, part := range t.reserved.split(s) {
		if part.reserved >= 0 {
			tokens = append(tokens, part.text)
			continue
		}
		tokens = t.appendRuns(tokens, part.text)
	}
	return tokens
}

func (t *Tokenizer) appendRuns(tokens []string, s string) []string {
	start := 0
	inAlnum := false
	flush := func(end int, alnum bool) {
		if end <= start {
			return
		}
		run := s[start:end]
		if alnum {
			tokens = append(tokens, run)
			return
		}
		if t.AlphanumOnly {
			return
		}
		if run = strings.TrimSpace(run); run != "" {
			tokens = append(tokens, run)
		}
	}
	for i, r := range s {
		a := isAlnum(r)
		if i == 0 {
			inAlnum = a
			continue
		}
		if a != inAlnum {
			flush(i, inAlnum)
			start = i
			inAlnum = a
		}
	}
	flush(len(s), inAlnum)
	return tokens
}
