package text

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/dlclark/regexp2"
	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

const (
	subwordFileExt = ".subwords"

	// Byte-level pre-tokenizer. The lookahead keeps the last space of a run
	// attached to the following word, which Go's regexp cannot express.
	subwordPretokenizer = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

	maxPieceCache = 1 << 14
)

var pretokenizer = regexp2.MustCompile(subwordPretokenizer, regexp2.RE2)

// Pair is an adjacent pair of subword symbols.
type Pair struct {
	A string
	B string
}

// SubwordEncoder is a byte-level BPE encoder. Id 0 is padding, ids 1..r are
// reserved tokens, followed by the 256 byte symbols and then every symbol
// produced by a learned merge. Any UTF-8 input round-trips.
type SubwordEncoder struct {
	reserved reservedSet
	merges   []Pair
	ranks    map[Pair]int
	symbols  []string
	ids      map[string]int
	buildID  string

	mu    sync.Mutex
	cache map[string][]int
}

var _ Encoder = (*SubwordEncoder)(nil)

func newSubwordEncoder(reservedTokens []string, merges []Pair, buildID string) (*SubwordEncoder, error) {
	rs, err := newReservedSet(reservedTokens)
	if err != nil {
		return nil, err
	}
	e := &SubwordEncoder{
		reserved: rs,
		merges:   slices.Clone(merges),
		ranks:    make(map[Pair]int, len(merges)),
		symbols:  make([]string, 0, 256+len(merges)),
		ids:      make(map[string]int, 256+len(merges)),
		buildID:  buildID,
		cache:    make(map[string][]int),
	}
	for b := 0; b < 256; b++ {
		e.addSymbol(string(bytesToUnicode.enc[b]))
	}
	for rank, p := range merges {
		if _, ok := e.ids[p.A]; !ok {
			return nil, fmt.Errorf("%w: merge %d uses unknown symbol %q", ErrInvalidVocabulary, rank, p.A)
		}
		if _, ok := e.ids[p.B]; !ok {
			return nil, fmt.Errorf("%w: merge %d uses unknown symbol %q", ErrInvalidVocabulary, rank, p.B)
		}
		if _, dup := e.ranks[p]; dup {
			return nil, fmt.Errorf("%w: duplicate merge %q %q", ErrInvalidVocabulary, p.A, p.B)
		}
		e.ranks[p] = rank
		e.addSymbol(p.A + p.B)
	}
	return e, nil
}

func (e *SubwordEncoder) addSymbol(s string) {
	if _, ok := e.ids[s]; ok {
		return
	}
	e.ids[s] = 1 + e.reserved.len() + len(e.symbols)
	e.symbols = append(e.symbols, s)
}

func (e *SubwordEncoder) Kind() Kind { return KindSubword }

func (e *SubwordEncoder) VocabSize() int { return 1 + e.reserved.len() + len(e.symbols) }

// BuildID identifies the corpus build that produced the vocabulary.
func (e *SubwordEncoder) BuildID() string { return e.buildID }

func (e *SubwordEncoder) ReservedTokens() []string { return slices.Clone(e.reserved.tokens) }

func (e *SubwordEncoder) Merges() []Pair { return slices.Clone(e.merges) }

func (e *SubwordEncoder) Encode(s string) ([]int, error) {
	var ids []int
	for _, part := range e.reserved.split(s) {
		if part.reserved >= 0 {
			ids = append(ids, 1+part.reserved)
			continue
		}
		for piece := range pretokenize(part.text) {
			pieceIDs, err := e.encodePiece(piece)
			if err != nil {
				return nil, err
			}
			ids = append(ids, pieceIDs...)
		}
	}
	return ids, nil
}

func (e *SubwordEncoder) encodePiece(piece string) ([]int, error) {
	e.mu.Lock()
	cached, ok := e.cache[piece]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	syms := e.applyMerges(bytesToUnicode.symbols(piece))
	ids := make([]int, len(syms))
	for i, s := range syms {
		id, ok := e.ids[s]
		if !ok {
			return nil, fmt.Errorf("%w: symbol %q", ErrOutOfVocabulary, s)
		}
		ids[i] = id
	}

	e.mu.Lock()
	if len(e.cache) >= maxPieceCache {
		clear(e.cache)
	}
	e.cache[piece] = ids
	e.mu.Unlock()
	return ids, nil
}

type mergeNode struct {
	p, n int
	sym  string
}

type rankedPair struct {
	a, b        int
	rank        int
	left, right string
}

// applyMerges merges adjacent symbols lowest rank first until no learned
// merge applies.
func (e *SubwordEncoder) applyMerges(syms []string) []string {
	if len(syms) < 2 {
		return syms
	}
	if _, ok := e.ids[concat(syms)]; ok {
		return []string{concat(syms)}
	}

	nodes := make([]mergeNode, len(syms))
	for i, s := range syms {
		nodes[i] = mergeNode{p: i - 1, n: i + 1, sym: s}
	}

	pairwise := func(a, b int) *rankedPair {
		if a < 0 || b >= len(nodes) {
			return nil
		}
		rank, ok := e.ranks[Pair{A: nodes[a].sym, B: nodes[b].sym}]
		if !ok {
			return nil
		}
		return &rankedPair{a: a, b: b, rank: rank, left: nodes[a].sym, right: nodes[b].sym}
	}

	pairs := heap.NewWith(func(x, y *rankedPair) int {
		if c := cmp.Compare(x.rank, y.rank); c != 0 {
			return c
		}
		return cmp.Compare(x.a, y.a)
	})
	for i := range len(nodes) - 1 {
		if p := pairwise(i, i+1); p != nil {
			pairs.Push(p)
		}
	}

	for !pairs.Empty() {
		p, _ := pairs.Pop()
		left, right := nodes[p.a], nodes[p.b]
		if left.n != p.b || left.sym != p.left || right.sym != p.right {
			continue
		}

		nodes[p.a].sym = left.sym + right.sym
		nodes[p.b].sym = ""
		nodes[p.a].n = right.n
		if right.n < len(nodes) {
			nodes[right.n].p = p.a
		}

		if q := pairwise(nodes[p.a].p, p.a); q != nil {
			pairs.Push(q)
		}
		if q := pairwise(p.a, nodes[p.a].n); q != nil {
			pairs.Push(q)
		}
	}

	out := make([]string, 0, len(nodes))
	for i := 0; i < len(nodes); i = nodes[i].n {
		out = append(out, nodes[i].sym)
	}
	return out
}

func concat(syms []string) string {
	n := 0
	for _, s := range syms {
		n += len(s)
	}
	b := make([]byte, 0, n)
	for _, s := range syms {
		b = append(b, s...)
	}
	return string(b)
}

func (e *SubwordEncoder) Decode(ids []int) (string, error) {
	r := e.reserved.len()
	var b []byte
	for _, id := range ids {
		switch {
		case id == 0:
		case id >= 1 && id <= r:
			b = append(b, e.reserved.tokens[id-1]...)
		case id > r && id < e.VocabSize():
			var ok bool
			b, ok = bytesToUnicode.appendBytes(b, e.symbols[id-r-1])
			if !ok {
				return "", fmt.Errorf("%w: symbol %q is not byte-level", ErrInvalidVocabulary, e.symbols[id-r-1])
			}
		default:
			return "", fmt.Errorf("%w: %d (vocab size %d)", ErrTokenOutOfRange, id, e.VocabSize())
		}
	}
	return string(b), nil
}

// pretokenize splits s into pieces that merges never cross. Text between
// matches is yielded too so no input is dropped.
func pretokenize(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == "" {
			return
		}
		// Slice the original string by byte offset so invalid UTF-8 survives.
		runes := []rune(s)
		offs := make([]int, 0, len(runes)+1)
		for i := range s {
			offs = append(offs, i)
		}
		offs = append(offs, len(s))

		offset := 0
		m, _ := pretokenizer.FindRunesMatch(runes)
		for m != nil {
			if m.Index > offset {
				if !yield(s[offs[offset]:offs[m.Index]]) {
					return
				}
			}
			end := m.Index + m.Length
			if !yield(s[offs[m.Index]:offs[end]]) {
				return
			}
			offset = end
			m, _ = pretokenizer.FindNextMatch(m)
		}
		if offset < len(runes) {
			yield(s[offs[offset]:])
		}
	}
}

type subwordFile struct {
	fileHeader
	BuildID        string     `json:"build_id"`
	VocabSize      int        `json:"vocab_size"`
	ReservedTokens []string   `json:"reserved_tokens"`
	Merges         [][]string `json:"merges"`
}

func (e *SubwordEncoder) SaveToFile(prefix string) error {
	path, err := vocabPath(prefix, subwordFileExt)
	if err != nil {
		return err
	}
	merges := make([][]string, len(e.merges))
	for i, p := range e.merges {
		merges[i] = []string{p.A, p.B}
	}
	return writeJSONFile(path, subwordFile{
		fileHeader:     fileHeader{Kind: KindSubword, Version: fileFormatVersion},
		BuildID:        e.buildID,
		VocabSize:      e.VocabSize(),
		ReservedTokens: e.ReservedTokens(),
		Merges:         merges,
	})
}

// LoadSubwordEncoder restores an encoder written by SaveToFile.
func LoadSubwordEncoder(prefix string) (*SubwordEncoder, error) {
	path, err := vocabPath(prefix, subwordFileExt)
	if err != nil {
		return nil, err
	}
	var f subwordFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, err
	}
	if err := f.check(KindSubword, path); err != nil {
		return nil, err
	}
	merges := make([]Pair, len(f.Merges))
	for i, m := range f.Merges {
		if len(m) != 2 {
			return nil, fmt.Errorf("%w: %s merge %d has %d parts", ErrUnsupportedFormat, path, i, len(m))
		}
		merges[i] = Pair{A: m[0], B: m[1]}
	}
	e, err := newSubwordEncoder(f.ReservedTokens, merges, f.BuildID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if f.VocabSize != 0 && f.VocabSize != e.VocabSize() {
		return nil, fmt.Errorf("%w: %s declares vocab size %d, merges give %d",
			ErrUnsupportedFormat, path, f.VocabSize, e.VocabSize())
	}
	return e, nil
}
