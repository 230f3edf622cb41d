package tensor

import "fmt"

// DType identifies the element encoding of a stored feature tensor.
// Keep these stable; add new values only.
type DType uint32

const (
	DTypeUnknown DType = iota
	DTypeString
	DTypeBool
	DTypeU8
	DTypeI32
	DTypeI64
	DTypeF32
	DTypeF64
)

var dtypeNames = [...]string{
	DTypeUnknown: "unknown",
	DTypeString:  "string",
	DTypeBool:    "bool",
	DTypeU8:      "uint8",
	DTypeI32:     "int32",
	DTypeI64:     "int64",
	DTypeF32:     "float32",
	DTypeF64:     "float64",
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("dtype(%d)", uint32(d))
}

// Valid reports whether d is a known, non-unknown dtype.
func (d DType) Valid() bool {
	return d > DTypeUnknown && int(d) < len(dtypeNames)
}

// ElemSize returns the fixed byte width of one element, or 0 for
// variable-width encodings such as byte strings.
func (d DType) ElemSize() int {
	switch d {
	case DTypeBool, DTypeU8:
		return 1
	case DTypeI32, DTypeF32:
		return 4
	case DTypeI64, DTypeF64:
		return 8
	default:
		return 0
	}
}

// ParseDType resolves a dtype from its String form.
func ParseDType(s string) (DType, error) {
	for i, name := range dtypeNames {
		if i == int(DTypeUnknown) {
			continue
		}
		if name == s {
			return DType(i), nil
		}
	}
	return DTypeUnknown, fmt.Errorf("tensor: unknown dtype %q", s)
}

// MarshalText implements encoding.TextMarshaler so dtypes serialize by name.
func (d DType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("tensor: cannot marshal %s", d)
	}
	return []byte(d.String()), nil
}

func (d *DType) UnmarshalText(b []byte) error {
	v, err := ParseDType(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
