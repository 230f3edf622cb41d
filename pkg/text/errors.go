package text

import "errors"

var (
	ErrUnknownKind       = errors.New("text: unknown encoder kind")
	ErrVocabTooSmall     = errors.New("text: target vocabulary size too small")
	ErrTokenOutOfRange   = errors.New("text: token id out of range")
	ErrOutOfVocabulary   = errors.New("text: token not in vocabulary")
	ErrEmptyPath         = errors.New("text: file prefix must not be empty")
	ErrUnsupportedFormat = errors.New("text: unsupported vocabulary file")
	ErrInvalidVocabulary = errors.New("text: invalid vocabulary")
)
