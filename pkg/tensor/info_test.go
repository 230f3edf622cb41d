package tensor

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info Info
		want string
	}{
		{"scalar string", Scalar(DTypeString), "Info(shape=(), dtype=string)"},
		{"variable ints", Vector(Unknown, DTypeI64), "Info(shape=(None,), dtype=int64)"},
		{"matrix", Info{Shape: []int{2, 3}, DType: DTypeF32}, "Info(shape=(2, 3), dtype=float32)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestInfoPredicates(t *testing.T) {
	t.Parallel()

	s := Scalar(DTypeString)
	assert.True(t, s.IsScalar())
	assert.False(t, s.IsVariable())
	assert.Equal(t, 0, s.Rank())

	v := Vector(Unknown, DTypeI64)
	assert.False(t, v.IsScalar())
	assert.True(t, v.IsVariable())
	assert.Equal(t, 1, v.Rank())

	assert.True(t, Info{DType: DTypeString}.Equal(s), "nil shape should equal empty shape")
	assert.False(t, s.Equal(v))
}

func TestInfoValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Vector(Unknown, DTypeI64).Validate())
	require.NoError(t, Scalar(DTypeString).Validate())

	err := Info{Shape: []int{-2}, DType: DTypeI64}.Validate()
	require.ErrorIs(t, err, ErrInvalidInfo)

	err = Info{DType: DTypeUnknown}.Validate()
	require.ErrorIs(t, err, ErrInvalidInfo)
}

func TestDTypeText(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Vector(Unknown, DTypeI64))
	require.NoError(t, err)
	assert.JSONEq(t, `{"shape":[-1],"dtype":"int64"}`, string(b))

	var got Info
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.Equal(Vector(Unknown, DTypeI64)))

	_, err = ParseDType("complex128")
	require.Error(t, err)

	assert.Equal(t, 8, DTypeI64.ElemSize())
	assert.Equal(t, 0, DTypeString.ElemSize())
}
