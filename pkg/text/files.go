package text

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

const fileFormatVersion = 1

// fileHeader leads every JSON vocabulary file.
type fileHeader struct {
	Kind    Kind `json:"kind"`
	Version int  `json:"version"`
}

func (h fileHeader) check(want Kind, path string) error {
	if h.Kind != want {
		return fmt.Errorf("%w: %s holds a %q encoder, want %q", ErrUnsupportedFormat, path, h.Kind, want)
	}
	if h.Version != fileFormatVersion {
		return fmt.Errorf("%w: %s has version %d", ErrUnsupportedFormat, path, h.Version)
	}
	return nil
}

func vocabPath(prefix, ext string) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPath
	}
	return prefix + ext, nil
}

// writeFileAtomic writes through a temp file in the same directory so a
// crash never leaves a truncated vocabulary behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	b = append(b, '\n')
	if err := writeFileAtomic(path, b); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrUnsupportedFormat, path, err)
	}
	return nil
}

var kindByExt = map[string]Kind{
	byteFileExt:          KindByte,
	tokenFileExt:         KindToken,
	subwordFileExt:       KindSubword,
	sentencePieceFileExt: KindSentencePiece,
}

// KindForFile reports which encoder kind writes a vocabulary file with the
// extension of name.
func KindForFile(name string) (Kind, bool) {
	k, ok := kindByExt[filepath.Ext(name)]
	return k, ok
}
