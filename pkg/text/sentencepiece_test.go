package text

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

func testSentencePieceModel(t *testing.T) []byte {
	t.Helper()

	piece := func(p string, score float32, typ gosp.ModelProto_SentencePiece_Type) *gosp.ModelProto_SentencePiece {
		return &gosp.ModelProto_SentencePiece{
			Piece: proto.String(p),
			Score: proto.Float32(score),
			Type:  typ.Enum(),
		}
	}
	model := &gosp.ModelProto{
		Pieces: []*gosp.ModelProto_SentencePiece{
			piece("<unk>", 0, gosp.ModelProto_SentencePiece_UNKNOWN),
			piece("<s>", 0, gosp.ModelProto_SentencePiece_CONTROL),
			piece("</s>", 0, gosp.ModelProto_SentencePiece_CONTROL),
			piece("▁hello", -1, gosp.ModelProto_SentencePiece_NORMAL),
			piece("▁world", -1, gosp.ModelProto_SentencePiece_NORMAL),
			piece("<0x41>", -5, gosp.ModelProto_SentencePiece_BYTE),
		},
	}
	data, err := proto.Marshal(model)
	require.NoError(t, err)
	return data
}

func TestSentencePieceEncoder(t *testing.T) {
	t.Parallel()

	enc, err := NewSentencePieceEncoder(testSentencePieceModel(t))
	require.NoError(t, err)
	assert.Equal(t, KindSentencePiece, enc.Kind())
	assert.Equal(t, 6, enc.VocabSize())

	ids, err := enc.Encode("hello world")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, ids)

	ids, err = enc.Encode("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSentencePieceEncoderDecode(t *testing.T) {
	t.Parallel()

	enc, err := NewSentencePieceEncoder(testSentencePieceModel(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		ids  []int
		want string
	}{
		{"words", []int{3, 4}, "hello world"},
		{"control pieces dropped", []int{1, 3, 4, 2}, "hello world"},
		{"unknown piece", []int{3, 0}, "hello ⁇ "},
		{"byte fallback", []int{3, 5}, "helloA"},
		{"empty", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := enc.Decode(tc.ids)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err = enc.Decode([]int{6})
	require.ErrorIs(t, err, ErrTokenOutOfRange)
}

func TestSentencePieceEncoderInvalidModel(t *testing.T) {
	t.Parallel()

	_, err := NewSentencePieceEncoder(nil)
	require.Error(t, err)

	_, err = NewSentencePieceEncoder([]byte{0xff})
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = newSentencePiece("unused", []byte{})
	require.ErrorIs(t, err, ErrInvalidVocabulary)
}

func TestSentencePieceEncoderSaveLoad(t *testing.T) {
	t.Parallel()

	enc, err := NewSentencePieceEncoder(testSentencePieceModel(t))
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "caption.text")
	require.NoError(t, enc.SaveToFile(prefix))
	assert.FileExists(t, prefix+".model")

	loaded, err := LoadSentencePieceEncoder(prefix)
	require.NoError(t, err)
	assert.Equal(t, enc.VocabSize(), loaded.VocabSize())

	want, err := enc.Encode("hello world")
	require.NoError(t, err)
	got, err := loaded.Encode("hello world")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadSentencePieceEncoder("")
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestBytePiece(t *testing.T) {
	t.Parallel()

	b, ok := bytePiece("<0x0A>")
	assert.True(t, ok)
	assert.Equal(t, byte('\n'), b)

	for _, p := range []string{"<0xZZ>", "<0x0A", "0x0A>", "▁hello"} {
		_, ok := bytePiece(p)
		assert.False(t, ok, p)
	}
}
