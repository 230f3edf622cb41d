package text

import (
	"fmt"
	"slices"
)

const byteFileExt = ".bytes"

// ByteEncoder maps text to its UTF-8 bytes. Id 0 is padding, ids 1..n are
// the additional tokens, and byte b is encoded as n+1+b.
type ByteEncoder struct {
	additional reservedSet
}

var _ Encoder = (*ByteEncoder)(nil)

func NewByteEncoder(additionalTokens ...string) (*ByteEncoder, error) {
	rs, err := newReservedSet(additionalTokens)
	if err != nil {
		return nil, err
	}
	return &ByteEncoder{additional: rs}, nil
}

func (e *ByteEncoder) Kind() Kind { return KindByte }

func (e *ByteEncoder) VocabSize() int { return 1 + e.additional.len() + 256 }

// AdditionalTokens returns the tokens encoded as single ids.
func (e *ByteEncoder) AdditionalTokens() []string {
	return slices.Clone(e.additional.tokens)
}

func (e *ByteEncoder) Encode(s string) ([]int, error) {
	offset := 1 + e.additional.len()
	ids := make([]int, 0, len(s))
	for _, part := range e.additional.split(s) {
		if part.reserved >= 0 {
			ids = append(ids, 1+part.reserved)
			continue
		}
		for i := 0; i < len(part.text); i++ {
			ids = append(ids, offset+int(part.text[i]))
		}
	}
	return ids, nil
}

func (e *ByteEncoder) Decode(ids []int) (string, error) {
	n := e.additional.len()
	b := make([]byte, 0, len(ids))
	for _, id := range ids {
		switch {
		case id == 0:
		case id >= 1 && id <= n:
			b = append(b, e.additional.tokens[id-1]...)
		case id > n && id < e.VocabSize():
			b = append(b, byte(id-n-1))
		default:
			return "", fmt.Errorf("%w: %d (vocab size %d)", ErrTokenOutOfRange, id, e.VocabSize())
		}
	}
	return string(b), nil
}

type byteFile struct {
	fileHeader
	AdditionalTokens []string `json:"additional_tokens"`
}

func (e *ByteEncoder) SaveToFile(prefix string) error {
	path, err := vocabPath(prefix, byteFileExt)
	if err != nil {
		return err
	}
	return writeJSONFile(path, byteFile{
		fileHeader:       fileHeader{Kind: KindByte, Version: fileFormatVersion},
		AdditionalTokens: e.AdditionalTokens(),
	})
}

// LoadByteEncoder restores an encoder written by SaveToFile.
func LoadByteEncoder(prefix string) (*ByteEncoder, error) {
	path, err := vocabPath(prefix, byteFileExt)
	if err != nil {
		return nil, err
	}
	var f byteFile
	if err := readJSONFile(path, &f); err != nil {
		return nil, err
	}
	if err := f.check(KindByte, path); err != nil {
		return nil, err
	}
	return NewByteEncoder(f.AdditionalTokens...)
}
