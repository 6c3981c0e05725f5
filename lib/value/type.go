// Package value implements the tagged scalar/buffer value type shared by
// every descriptor and sample in the registry (spec §3 "Value", §4.1).
package value

import "fmt"

// Type is the stable, ordered list of value type codes a Descriptor or
// Sample can carry (spec §6 "Value type codes").
type Type int

const (
	TypeNull Type = iota
	TypeUChar
	TypeChar
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeUint
	TypeInt
	TypeUlong
	TypeLong
	TypeFloat32
	TypeFloat64
	TypeFloatExtended
	TypeUint64
	TypeInt64
	TypeString
	TypeBytes
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeUChar:
		return "uchar"
	case TypeChar:
		return "char"
	case TypeUint16:
		return "uint16"
	case TypeInt16:
		return "int16"
	case TypeUint32:
		return "uint32"
	case TypeInt32:
		return "int32"
	case TypeUint:
		return "uint"
	case TypeInt:
		return "int"
	case TypeUlong:
		return "ulong"
	case TypeLong:
		return "long"
	case TypeFloat32:
		return "f32"
	case TypeFloat64:
		return "f64"
	case TypeFloatExtended:
		return "fext"
	case TypeUint64:
		return "uint64"
	case TypeInt64:
		return "int64"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// kind distinguishes the two storage arms of Value: a fixed-size scalar
// held inline (raw bit pattern) or a variable-length buffer (owned
// allocation).
type kind int

const (
	kindScalar kind = iota
	kindBuffer
)

// typeInfo is the one-time-initialized metadata table the spec calls for:
// "(offset, size) for each type", which powers the generic raw-copy and
// equal/memcmp fallback paths. In Go there is no variable offset into a
// union, so the table degenerates to (kind, byte width); every scalar
// value is stored in the same 8-byte bit-pattern field regardless of
// width, and width is only used to decide how many bytes of that pattern
// from_raw/to_raw touch.
type typeInfo struct {
	kind kind
	size int // byte width for scalars; unused for buffers
	isUnsigned bool
	isFloat    bool
}

var typeTable = map[Type]typeInfo{
	TypeNull:          {kindScalar, 0, false, false},
	TypeUChar:         {kindScalar, 1, true, false},
	TypeChar:          {kindScalar, 1, false, false},
	TypeUint16:        {kindScalar, 2, true, false},
	TypeInt16:         {kindScalar, 2, false, false},
	TypeUint32:        {kindScalar, 4, true, false},
	TypeInt32:         {kindScalar, 4, false, false},
	TypeUint:          {kindScalar, 8, true, false},
	TypeInt:           {kindScalar, 8, false, false},
	TypeUlong:         {kindScalar, 8, true, false},
	TypeLong:          {kindScalar, 8, false, false},
	TypeFloat32:       {kindScalar, 4, false, true},
	TypeFloat64:       {kindScalar, 8, false, true},
	TypeFloatExtended: {kindScalar, 8, false, true},
	TypeUint64:        {kindScalar, 8, true, false},
	TypeInt64:         {kindScalar, 8, false, false},
	TypeString:        {kindBuffer, 0, false, false},
	TypeBytes:         {kindBuffer, 0, false, false},
}

// Valid reports whether t is a known type code.
func Valid(t Type) bool {
	_, ok := typeTable[t]
	return ok
}

func infoOf(t Type) (typeInfo, error) {
	ti, ok := typeTable[t]
	if !ok {
		return typeInfo{}, fmt.Errorf("value: type out of range: %d", int(t))
	}
	return ti, nil
}

// IsBuffer reports whether t is one of the two buffer variants (string,
// bytes).
func (t Type) IsBuffer() bool {
	ti, ok := typeTable[t]
	return ok && ti.kind == kindBuffer
}
