package text

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/google/uuid"
)

type wordCount struct {
	symbols []string
	count   int
}

// BuildSubwordEncoder learns byte-level merges from corpus until the
// vocabulary reaches targetVocabSize or no pair occurs MinPairCount times.
// The corpus is consumed once.
func BuildSubwordEncoder(corpus iter.Seq[string], targetVocabSize int, opts ...BuildOption) (*SubwordEncoder, error) {
	o := newBuildOptions(opts)
	reserved, err := newReservedSet(o.ReservedTokens)
	if err != nil {
		return nil, err
	}
	minSize := 1 + reserved.len() + 256
	if targetVocabSize < minSize {
		return nil, fmt.Errorf("%w: %d < %d (padding, %d reserved tokens and 256 bytes)",
			ErrVocabTooSmall, targetVocabSize, minSize, reserved.len())
	}

	counts, chars := countPieces(corpus, reserved, o.MaxCorpusChars)
	words := make([]wordCount, 0, len(counts))
	for _, piece := range slices.Sorted(maps.Keys(counts)) {
		words = append(words, wordCount{symbols: bytesToUnicode.symbols(piece), count: counts[piece]})
	}
	o.Logger.Debug("corpus scanned", "chars", chars, "pieces", len(words))

	known := make(map[string]struct{}, targetVocabSize)
	for b := 0; b < 256; b++ {
		known[string(bytesToUnicode.enc[b])] = struct{}{}
	}

	vocab := minSize
	var merges []Pair
	learned := make(map[Pair]struct{})
	for vocab < targetVocabSize {
		best, n := mostFrequentPair(words, learned)
		if n < o.MinPairCount {
			break
		}
		merges = append(merges, best)
		learned[best] = struct{}{}
		merged := best.A + best.B
		if _, ok := known[merged]; !ok {
			known[merged] = struct{}{}
			vocab++
		}
		for i := range words {
			words[i].symbols = mergePair(words[i].symbols, best)
		}
		if len(merges)%1000 == 0 {
			o.Logger.Debug("subword merges learned", "merges", len(merges), "vocab_size", vocab)
		}
	}

	enc, err := newSubwordEncoder(reserved.tokens, merges, uuid.NewString())
	if err != nil {
		return nil, err
	}
	o.Logger.Info("subword vocabulary built",
		"build_id", enc.BuildID(),
		"vocab_size", enc.VocabSize(),
		"target_vocab_size", targetVocabSize,
		"merges", len(merges),
	)
	return enc, nil
}

func countPieces(corpus iter.Seq[string], reserved reservedSet, maxChars int) (map[string]int, int) {
	counts := make(map[string]int)
	chars := 0
	for record := range corpus {
		if maxChars > 0 {
			remaining := maxChars - chars
			if remaining <= 0 {
				break
			}
			record = truncateRunes(record, remaining)
		}
		chars += utf8.RuneCountInString(record)
		for _, part := range reserved.split(record) {
			if part.reserved >= 0 {
				continue
			}
			for piece := range pretokenize(part.text) {
				counts[piece]++
			}
		}
	}
	return counts, chars
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// mostFrequentPair returns the pair with the highest weighted count, ignoring
// pairs already learned. Ties go to the lexically smallest pair so builds are
// reproducible.
func mostFrequentPair(words []wordCount, learned map[Pair]struct{}) (Pair, int) {
	counts := make(map[Pair]int)
	for _, w := range words {
		for i := 0; i+1 < len(w.symbols); i++ {
			p := Pair{A: w.symbols[i], B: w.symbols[i+1]}
			if _, done := learned[p]; done {
				continue
			}
			counts[p] += w.count
		}
	}
	var best Pair
	bestCount := 0
	for p, n := range counts {
		if n > bestCount || (n == bestCount && comparePairs(p, best) < 0) {
			best, bestCount = p, n
		}
	}
	return best, bestCount
}

func comparePairs(x, y Pair) int {
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}
	return cmp.Compare(x.B, y.B)
}

func mergePair(word []string, pair Pair) []string {
	if len(word) < 2 {
		return word
	}
	out := make([]string, 0, len(word))
	for i := 0; i < len(word); i++ {
		if i < len(word)-1 && word[i] == pair.A && word[i+1] == pair.B {
			out = append(out, word[i]+word[i+1])
			i++
			continue
		}
		out = append(out, word[i])
	}
	return out
}
