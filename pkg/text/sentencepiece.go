package text

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

const (
	sentencePieceFileExt = ".model"

	spSpace   = "▁" // ▁ word-start marker
	spUnknown = " ⁇ "
)

// SentencePieceEncoder wraps a pretrained SentencePiece unigram model. It
// cannot be learned from a corpus here; models come from the upstream
// trainer.
type SentencePieceEncoder struct {
	proc   gosp.Sentencepiece
	pieces []string
	types  []gosp.ModelProto_SentencePiece_Type
	model  []byte
}

var _ Encoder = (*SentencePieceEncoder)(nil)

// NewSentencePieceEncoder loads a serialized ModelProto. The upstream
// library only exposes a file-path API, so the bytes go through a temp file.
func NewSentencePieceEncoder(model []byte) (*SentencePieceEncoder, error) {
	if len(model) == 0 {
		return nil, errors.New("text: sentencepiece model data must not be empty")
	}

	f, err := os.CreateTemp("", "sp-*.model")
	if err != nil {
		return nil, fmt.Errorf("create temp sentencepiece file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(model); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write sentencepiece model bytes: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close sentencepiece temp file: %w", err)
	}
	return newSentencePiece(f.Name(), model)
}

func newSentencePiece(path string, model []byte) (*SentencePieceEncoder, error) {
	var mp gosp.ModelProto
	if err := proto.Unmarshal(model, &mp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal sentencepiece model: %v", ErrUnsupportedFormat, err)
	}
	if len(mp.GetPieces()) == 0 {
		return nil, fmt.Errorf("%w: sentencepiece model has no pieces", ErrInvalidVocabulary)
	}

	proc, err := gosp.NewSentencepieceFromFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", path, err)
	}

	e := &SentencePieceEncoder{
		proc:   proc,
		pieces: make([]string, len(mp.GetPieces())),
		types:  make([]gosp.ModelProto_SentencePiece_Type, len(mp.GetPieces())),
		model:  model,
	}
	for i, p := range mp.GetPieces() {
		e.pieces[i] = p.GetPiece()
		e.types[i] = p.GetType()
	}
	return e, nil
}

// LoadSentencePieceEncoder reads <prefix>.model.
func LoadSentencePieceEncoder(prefix string) (*SentencePieceEncoder, error) {
	path, err := vocabPath(prefix, sentencePieceFileExt)
	if err != nil {
		return nil, err
	}
	model, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newSentencePiece(path, model)
}

func (e *SentencePieceEncoder) Kind() Kind { return KindSentencePiece }

func (e *SentencePieceEncoder) VocabSize() int { return len(e.pieces) }

func (e *SentencePieceEncoder) Encode(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	raw := e.proc.TokenizeToIDs(s)
	ids := make([]int, len(raw))
	for i, id := range raw {
		ids[i] = int(id)
	}
	return ids, nil
}

// Decode concatenates pieces, turning word-start markers back into spaces.
// Control pieces are dropped and unknown pieces render as " ⁇ ".
func (e *SentencePieceEncoder) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		if id < 0 || id >= len(e.pieces) {
			return "", fmt.Errorf("%w: %d (vocab size %d)", ErrTokenOutOfRange, id, len(e.pieces))
		}
		switch e.types[id] {
		case gosp.ModelProto_SentencePiece_CONTROL:
			continue
		case gosp.ModelProto_SentencePiece_UNKNOWN:
			b.WriteString(spUnknown)
			continue
		}
		piece := e.pieces[id]
		if by, ok := bytePiece(piece); ok {
			b.WriteByte(by)
			continue
		}
		b.WriteString(strings.ReplaceAll(piece, spSpace, " "))
	}
	return strings.TrimPrefix(b.String(), " "), nil
}

// bytePiece parses byte-fallback pieces of the form <0xAB>.
func bytePiece(piece string) (byte, bool) {
	if len(piece) != 6 || !strings.HasPrefix(piece, "<0x") || piece[5] != '>' {
		return 0, false
	}
	v, err := strconv.ParseUint(piece[3:5], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}

// SaveToFile writes the model bytes unchanged to <prefix>.model.
func (e *SentencePieceEncoder) SaveToFile(prefix string) error {
	path, err := vocabPath(prefix, sentencePieceFileExt)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, e.model); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
