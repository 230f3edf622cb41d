// Package features implements the text feature connector: it turns strings
// into the tensor stored for a dataset feature and manages the vocabulary
// files that make an integer encoding reproducible.
package features

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/samcharles93/textfeat/internal/logger"
	"github.com/samcharles93/textfeat/pkg/tensor"
	"github.com/samcharles93/textfeat/pkg/text"
)

const metadataSuffix = ".text"

// DirLister returns the entry names of dir.
type DirLister func(dir string) ([]string, error)

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// Example is the stored value of a text feature. Exactly one field is set:
// Bytes in raw mode, IDs when an encoder is bound.
type Example struct {
	Bytes []byte  `json:"bytes,omitempty"`
	IDs   []int64 `json:"ids,omitempty"`
}

// Text is the text feature connector. It either stores UTF-8 bytes or, with
// an encoder bound, variable-length int64 ids.
//
// Mutating calls (TryBindEncoder, LoadMetadata, MaybeBuildFromCorpus) must be
// serialized by the caller. Once binding is done the read side is safe for
// concurrent use.
type Text struct {
	encoder text.Encoder
	config  *text.EncoderConfig
	listDir DirLister
	log     logger.Logger
}

type Option func(*Text)

// WithDirLister replaces the directory listing used by LoadMetadata.
func WithDirLister(fn DirLister) Option {
	return func(t *Text) { t.listDir = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Text) { t.log = logger.FromSlog(l) }
}

// NewText builds a connector from an encoder or an encoder config, not both.
// With neither the connector stays in raw byte mode. A config without an
// attached encoder leaves the connector waiting for TryBindEncoder,
// LoadMetadata or MaybeBuildFromCorpus.
func NewText(enc text.Encoder, cfg *text.EncoderConfig, opts ...Option) (*Text, error) {
	if enc != nil && cfg != nil {
		return nil, ErrDualEncoderSpecification
	}

	t := &Text{listDir: readDirNames, log: logger.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	if t.listDir == nil {
		t.listDir = readDirNames
	}

	switch {
	case enc != nil:
		if isNilEncoder(enc) {
			return nil, ErrNilEncoder
		}
		c := text.ConfigFor(enc)
		t.config = &c
		t.encoder = enc
	case cfg != nil:
		c := *cfg
		c.Encoder = nil
		t.config = &c
		if cfg.Encoder != nil {
			if err := t.TryBindEncoder(cfg.Encoder); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// TryBindEncoder sets the encoder once. It fails if an encoder is already
// bound or if enc is not of the configured kind; the connector is unchanged
// on failure.
func (t *Text) TryBindEncoder(enc text.Encoder) error {
	if isNilEncoder(enc) {
		return ErrNilEncoder
	}
	if t.encoder != nil {
		return fmt.Errorf("%w: %s is already bound", ErrEncoderAlreadyBound, t.encoder.Kind())
	}
	if err := t.checkKind(enc); err != nil {
		return err
	}
	t.encoder = enc
	t.log.Debug("encoder bound", "kind", enc.Kind(), "vocab_size", enc.VocabSize())
	return nil
}

// isNilEncoder also catches a nil pointer stored in the interface.
func isNilEncoder(enc text.Encoder) bool {
	if enc == nil {
		return true
	}
	v := reflect.ValueOf(enc)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (t *Text) checkKind(enc text.Encoder) error {
	if t.config == nil || t.config.Kind == "" {
		return nil
	}
	if enc.Kind() != t.config.Kind {
		return fmt.Errorf("%w: got %s (%T) but must be %s",
			ErrEncoderTypeMismatch, enc.Kind(), enc, t.config.Kind)
	}
	return nil
}

// Encoder returns the bound encoder, or nil.
func (t *Text) Encoder() text.Encoder { return t.encoder }

// EncoderConfig returns a copy of the config. ok is false in raw mode.
func (t *Text) EncoderConfig() (cfg text.EncoderConfig, ok bool) {
	if t.config == nil {
		return text.EncoderConfig{}, false
	}
	return *t.config, true
}

// VocabSize is the bound encoder's vocabulary size, or 0.
func (t *Text) VocabSize() int {
	if t.encoder == nil {
		return 0
	}
	return t.encoder.VocabSize()
}

// TensorInfo describes the stored tensor: a scalar string in raw mode, a
// variable-length int64 vector once an encoder is bound.
func (t *Text) TensorInfo() tensor.Info {
	if t.encoder != nil {
		return tensor.Vector(tensor.Unknown, tensor.DTypeI64)
	}
	return tensor.Scalar(tensor.DTypeString)
}

// EncodeExample converts s to its stored form. With an encoder bound the IDs
// slice is non-nil even when s encodes to no ids.
func (t *Text) EncodeExample(s string) (Example, error) {
	if t.encoder == nil {
		return Example{Bytes: []byte(s)}, nil
	}
	ids, err := t.encoder.Encode(s)
	if err != nil {
		return Example{}, fmt.Errorf("encode example: %w", err)
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return Example{IDs: out}, nil
}

// DecodeExample returns ex unchanged. Stored ids are not decoded back to
// text here; use IntsToStr for that.
func (t *Text) DecodeExample(ex Example) Example {
	return ex
}

func (t *Text) StrToInts(s string) ([]int, error) {
	if t.encoder == nil {
		return nil, fmt.Errorf("%w: StrToInts is not available", ErrEncoderNotConfigured)
	}
	return t.encoder.Encode(s)
}

func (t *Text) IntsToStr(ids []int) (string, error) {
	if t.encoder == nil {
		return "", fmt.Errorf("%w: IntsToStr is not available", ErrEncoderNotConfigured)
	}
	return t.encoder.Decode(ids)
}

// MetadataPrefix is the path every vocabulary file of a feature starts with.
func MetadataPrefix(dataDir, featureName string) string {
	return filepath.Join(dataDir, featureName+metadataSuffix)
}

// SaveMetadata writes the encoder's vocabulary files. It does nothing in
// raw mode.
func (t *Text) SaveMetadata(dataDir, featureName string) error {
	if t.encoder == nil {
		return nil
	}
	prefix := MetadataPrefix(dataDir, featureName)
	if err := t.encoder.SaveToFile(prefix); err != nil {
		return fmt.Errorf("save %s metadata for %q: %w", t.encoder.Kind(), featureName, err)
	}
	t.log.Info("saved text metadata", "feature", featureName, "prefix", prefix, "kind", t.encoder.Kind())
	return nil
}

// LoadMetadata restores the encoder of the configured kind from dataDir and
// binds it, replacing any encoder already bound. Without a configured kind
// it only verifies that no vocabulary files exist for the feature.
func (t *Text) LoadMetadata(dataDir, featureName string) error {
	prefix := MetadataPrefix(dataDir, featureName)

	if t.config == nil || t.config.Kind == "" {
		files, err := t.MetadataFiles(dataDir, featureName)
		if err != nil {
			return err
		}
		if len(files) > 0 {
			return fmt.Errorf("%w: feature %q has %s", ErrOrphanedMetadata, featureName, strings.Join(files, ", "))
		}
		return nil
	}

	f, err := text.Lookup(t.config.Kind)
	if err != nil {
		return err
	}
	enc, err := f.Load(prefix)
	if err != nil {
		return fmt.Errorf("load %s metadata for %q: %w", t.config.Kind, featureName, err)
	}
	if err := t.checkKind(enc); err != nil {
		return err
	}
	t.encoder = enc
	t.log.Info("loaded text metadata", "feature", featureName, "prefix", prefix,
		"kind", enc.Kind(), "vocab_size", enc.VocabSize())
	return nil
}

// MetadataFiles lists the entries of dataDir that belong to featureName, in
// sorted order. A missing directory has none.
func (t *Text) MetadataFiles(dataDir, featureName string) ([]string, error) {
	names, err := t.listDir(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dataDir, err)
	}
	want := featureName + metadataSuffix
	var out []string
	for _, name := range names {
		if strings.HasPrefix(filepath.Base(name), want) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

// MaybeBuildFromCorpus learns the vocabulary from corpus when the configured
// kind supports it and binds the result. It is a no-op in raw mode and for
// kinds that cannot be built. The corpus is not read if an encoder is
// already bound.
func (t *Text) MaybeBuildFromCorpus(corpus iter.Seq[string], opts ...text.BuildOption) error {
	if t.config == nil || t.config.Kind == "" {
		return nil
	}
	f, err := text.Lookup(t.config.Kind)
	if err != nil {
		return err
	}
	if !f.CanBuild() {
		t.log.Debug("encoder kind cannot be built from a corpus", "kind", t.config.Kind)
		return nil
	}
	if t.encoder != nil {
		return fmt.Errorf("%w: %s is already bound", ErrEncoderAlreadyBound, t.encoder.Kind())
	}

	enc, err := f.Build(corpus, t.config.VocabSize, opts...)
	if err != nil {
		return fmt.Errorf("build %s vocabulary: %w", t.config.Kind, err)
	}
	return t.TryBindEncoder(enc)
}
