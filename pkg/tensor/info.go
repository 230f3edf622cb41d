// Package tensor describes the shape and element type of stored feature tensors.
package tensor

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Unknown marks a dimension whose length varies per example.
const Unknown = -1

var ErrInvalidInfo = errors.New("tensor: invalid tensor info")

// Info is a {shape, dtype} descriptor. An empty Shape is a scalar.
type Info struct {
	Shape []int `json:"shape"`
	DType DType `json:"dtype"`
}

// Scalar returns the descriptor of a single value of the given dtype.
func Scalar(dt DType) Info {
	return Info{Shape: []int{}, DType: dt}
}

// Vector returns a rank-1 descriptor. Pass Unknown for variable length.
func Vector(n int, dt DType) Info {
	return Info{Shape: []int{n}, DType: dt}
}

func (i Info) Rank() int { return len(i.Shape) }

func (i Info) IsScalar() bool { return len(i.Shape) == 0 }

// IsVariable reports whether any dimension is Unknown.
func (i Info) IsVariable() bool {
	return slices.Contains(i.Shape, Unknown)
}

// Equal compares shape and dtype. A nil shape equals an empty one.
func (i Info) Equal(o Info) bool {
	return i.DType == o.DType && slices.Equal(i.Shape, o.Shape)
}

// Validate checks that the descriptor could be registered with a storage layer.
func (i Info) Validate() error {
	if !i.DType.Valid() {
		return fmt.Errorf("%w: dtype %s", ErrInvalidInfo, i.DType)
	}
	for axis, d := range i.Shape {
		if d < Unknown {
			return fmt.Errorf("%w: dim %d on axis %d", ErrInvalidInfo, d, axis)
		}
	}
	return nil
}

// String renders e.g. "Info(shape=(None,), dtype=int64)".
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("Info(shape=(")
	for axis, d := range i.Shape {
		if axis > 0 {
			b.WriteString(", ")
		}
		if d == Unknown {
			b.WriteString("None")
		} else {
			b.WriteString(strconv.Itoa(d))
		}
	}
	if len(i.Shape) == 1 {
		b.WriteByte(',')
	}
	b.WriteString("), dtype=")
	b.WriteString(i.DType.String())
	b.WriteByte(')')
	return b.String()
}
