package text

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
)

const (
	tokenFileExt    = ".tokens"
	defaultOOVToken = "UNK"
)

// TokenEncoder maps whole tokens to ids. Id 0 is padding, vocabulary entry
// i is i+1, and unknown tokens hash into OOV buckets placed after the
// vocabulary.
type TokenEncoder struct {
	tokens     []string
	ids        map[string]int
	lowercase  bool
	oovBuckets int
	oovToken   string
	tokenizer  *Tokenizer
}

var _ Encoder = (*TokenEncoder)(nil)

type TokenOption func(*TokenEncoder)

// WithLowercase folds input tokens to lower case before lookup. Reserved
// tokens are matched verbatim.
func WithLowercase(v bool) TokenOption {
	return func(e *TokenEncoder) { e.lowercase = v }
}

// WithOOVBuckets sets how many ids unknown tokens hash into. Zero makes
// unknown tokens an encode error.
func WithOOVBuckets(n int) TokenOption {
	return func(e *TokenEncoder) { e.oovBuckets = n }
}

func WithOOVToken(tok string) TokenOption {
	return func(e *TokenEncoder) { e.oovToken = tok }
}

func WithTokenizer(t *Tokenizer) TokenOption {
	return func(e *TokenEncoder) { e.tokenizer = t }
}

func NewTokenEncoder(vocab []string, opts ...TokenOption) (*TokenEncoder, error) {
	e := &TokenEncoder{
		tokens:     slices.Clone(vocab),
		ids:        make(map[string]int, len(vocab)),
		oovBuckets: 1,
		oovToken:   defaultOOVToken,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.oovBuckets < 0 {
		return nil, fmt.Errorf("%w: negative oov bucket count %d", ErrInvalidVocabulary, e.oovBuckets)
	}
	for i, tok := range e.tokens {
		if tok == "" {
			return nil, fmt.Errorf("%w: empty token at index %d", ErrInvalidVocabulary, i)
		}
		if _, dup := e.ids[tok]; dup {
			return nil, fmt.Errorf("%w: duplicate token %q", ErrInvalidVocabulary, tok)
		}
		e.ids[tok] = i + 1
	}
	if e.tokenizer == nil {
		t, err := NewTokenizer(true)
		if err != nil {
			return nil, err
		}
		e.tokenizer = t
	}
	return e, nil
}

func (e *TokenEncoder) Kind() Kind { return KindToken }

func (e *TokenEncoder) VocabSize() int { return 1 + len(e.tokens) + e.oovBuckets }

func (e *TokenEncoder) Tokens() []string { return slices.Clone(e.tokens) }

func (e *TokenEncoder) Encode(s string) ([]int, error) {
	toks := e.tokenizer.Tokenize(s)
	ids := make([]int, 0, len(toks))
	for _, tok := range toks {
		if _, reserved := e.tokenizer.reserved.index[tok]; !reserved && e.lowercase {
			tok = strings.ToLower(tok)
		}
		if id, ok := e.ids[tok]; ok {
			ids = append(ids, id)
			continue
		}
		if e.oovBuckets == 0 {
			return nil, fmt.Errorf("%w: %q", ErrOutOfVocabulary, tok)
		}
		ids = append(ids, 1+len(e.tokens)+e.bucket(tok))
	}
	return ids, nil
}

func (e *TokenEncoder) bucket(tok string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	return int(h.Sum32() % uint32(e.oovBuckets))
}

// Decode joins tokens with single spaces. OOV ids decode to the OOV token.
func (e *TokenEncoder) Decode(ids []int) (string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		switch {
		case id == 0:
		case id >= 1 && id <= len(e.tokens):
			out = append(out, e.tokens[id-1])
		case id > len(e.tokens) && id < e.VocabSize():
			out = append(out, e.oovToken)
		default:
			return "", fmt.Errorf("%w: %d (vocab size %d)", ErrTokenOutOfRange, id, e.VocabSize())
		}
	}
	return strings.Join(out, " "), nil
}

type tokenFile struct {
	fileHeader
	Lowercase      bool     `json:"lowercase"`
	OOVBuckets     int      `json:"oov_buckets"`
	OOVToken       string   `json:"oov_token"`
	AlphanumOnly   bool     `json:"alphanum_only"`
	ReservedTokens []string `json:"reserved_tokens"`
	Tokens         []string `json:"tokens"`
}

func (e *TokenEncoder) SaveToFile(prefix string) error {
	path, err := vocabPath(prefix, tokenFileExt)
	if err != nil {
		return err
	}
	return writeJSONFile(path, tokenFile{
		fileHeader:     fileHeader{Kind: KindToken, Version: fileFormatVersion},
		Lowercase:      e.lowercase,
		OOVBuckets:     e.oovBuckets,
		OOVToken:       e.oovToken,
		AlphanumOnly:   e.tokenizer.AlphanumOnly,
		ReservedTokens: e.tokenizer.ReservedTokens(),
		Tokens:         e.tokens,
	})
}

// LoadTokenEncoder restores an encoder written by SaveToFile.
func LoadTokenEncoder(prefix string) (*TokenEncoder, error) {
	path, err := vocabPath(prefix, tokenFileExt)
	if err != nil {
		return nil, err
	}
	var f tokenFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, err
	}
	if err := f.check(KindToken, path); err != nil {
		return nil, err
	}
	tok, err := NewTokenizer(f.AlphanumOnly, f.ReservedTokens...)
	if err != nil {
		return nil, err
	}
	return NewTokenEncoder(f.Tokens,
		WithLowercase(f.Lowercase),
		WithOOVBuckets(f.OOVBuckets),
		WithOOVToken(f.OOVToken),
		WithTokenizer(tok),
	)
}
