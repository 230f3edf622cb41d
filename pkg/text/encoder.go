// Package text provides the integer encoders used by text features and the
// registry that maps an encoder kind to its load and build routines.
package text

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/samcharles93/textfeat/internal/logger"
)

// Kind identifies a concrete Encoder implementation. It is what gets
// recorded in configuration so an encoder can be restored without holding
// an instance.
type Kind string

const (
	KindByte          Kind = "byte"
	KindToken         Kind = "token"
	KindSubword       Kind = "subword"
	KindSentencePiece Kind = "sentencepiece"
)

// Encoder converts text to integer ids and back.
type Encoder interface {
	Kind() Kind
	Encode(s string) ([]int, error)
	Decode(ids []int) (string, error)
	// VocabSize is one past the largest id Encode can produce.
	VocabSize() int
	// SaveToFile writes the encoder state to files starting with prefix.
	SaveToFile(prefix string) error
}

// EncoderConfig declares which encoder kind a feature uses and the target
// vocabulary size for kinds that learn one. Encoder optionally carries an
// instance built ahead of time.
type EncoderConfig struct {
	Kind      Kind
	VocabSize int
	Encoder   Encoder
}

func (c EncoderConfig) String() string {
	return fmt.Sprintf("EncoderConfig(kind=%s, vocab_size=%d)", c.Kind, c.VocabSize)
}

// ConfigFor derives the config describing an existing encoder.
func ConfigFor(enc Encoder) EncoderConfig {
	return EncoderConfig{Kind: enc.Kind(), VocabSize: enc.VocabSize()}
}

// LoadFunc restores an encoder from files written by SaveToFile.
type LoadFunc func(prefix string) (Encoder, error)

// BuildFunc learns an encoder from a corpus of raw text records.
type BuildFunc func(corpus iter.Seq[string], targetVocabSize int, opts ...BuildOption) (Encoder, error)

// Factory holds the kind-level routines of an encoder implementation.
// Build is nil for kinds that cannot learn a vocabulary.
type Factory struct {
	Load  LoadFunc
	Build BuildFunc
}

// CanBuild reports whether the kind can be learned from a corpus.
func (f Factory) CanBuild() bool { return f.Build != nil }

var (
	registryMu sync.RWMutex
	registry   = map[Kind]Factory{}
)

// Register makes an encoder kind available to Lookup. It panics on an empty
// kind, a missing Load, or a duplicate registration.
func Register(kind Kind, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if kind == "" {
		panic("text: Register with empty kind")
	}
	if f.Load == nil {
		panic("text: Register " + string(kind) + " without Load")
	}
	if _, dup := registry[kind]; dup {
		panic("text: Register called twice for " + string(kind))
	}
	registry[kind] = f
}

// Lookup returns the factory registered for kind.
func Lookup(kind Kind) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[kind]
	if !ok {
		return Factory{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f, nil
}

// Kinds lists the registered kinds in sorted order.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func loader[E Encoder](fn func(string) (E, error)) LoadFunc {
	return func(prefix string) (Encoder, error) {
		enc, err := fn(prefix)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
}

func init() {
	Register(KindByte, Factory{Load: loader(LoadByteEncoder)})
	Register(KindToken, Factory{Load: loader(LoadTokenEncoder)})
	Register(KindSentencePiece, Factory{Load: loader(LoadSentencePieceEncoder)})
	Register(KindSubword, Factory{
		Load: loader(LoadSubwordEncoder),
		Build: func(corpus iter.Seq[string], target int, opts ...BuildOption) (Encoder, error) {
			enc, err := BuildSubwordEncoder(corpus, target, opts...)
			if err != nil {
				return nil, err
			}
			return enc, nil
		},
	})
}

// BuildOptions are the pass-through settings of a corpus build.
type BuildOptions struct {
	ReservedTokens []string
	// MinPairCount stops learning once the most frequent pair is rarer.
	MinPairCount int
	// MaxCorpusChars caps how many characters are read; 0 means no cap.
	MaxCorpusChars int
	Logger         logger.Logger
}

type BuildOption func(*BuildOptions)

func WithReservedTokens(tokens ...string) BuildOption {
	return func(o *BuildOptions) { o.ReservedTokens = append(o.ReservedTokens, tokens...) }
}

func WithMinPairCount(n int) BuildOption {
	return func(o *BuildOptions) { o.MinPairCount = n }
}

func WithMaxCorpusChars(n int) BuildOption {
	return func(o *BuildOptions) { o.MaxCorpusChars = n }
}

// WithBuildLogger reports build progress to l.
func WithBuildLogger(l *slog.Logger) BuildOption {
	return func(o *BuildOptions) { o.Logger = logger.FromSlog(l) }
}

func newBuildOptions(opts []BuildOption) BuildOptions {
	o := BuildOptions{MinPairCount: 2}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MinPairCount < 1 {
		o.MinPairCount = 1
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	return o
}
