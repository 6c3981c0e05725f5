package value

import (
	"bytes"
	"math"
)

// Equal implements spec §4.1 "equal": false on different types; for
// floats, bit-exact equality is required (two representations of the
// "same" real number need not compare equal); for buffers, length then
// byte compare.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	if a.Type.IsBuffer() {
		return a.buf.Used == b.buf.Used && bytes.Equal(a.buf.Live(), b.buf.Live())
	}
	ti, err := infoOf(a.Type)
	if err != nil {
		return false
	}
	return maskWidth(a.bits, ti.size) == maskWidth(b.bits, ti.size)
}

// Compare implements spec §4.1 "compare": a total order extending
// equality. Null sorts before all. Across buffer vs non-buffer, the
// non-buffer side is first stringified into a scratch buffer and
// byte-compared against the buffer side when the two have equal length;
// otherwise (and whenever both sides are non-buffer of differing types)
// it falls back to sign(ceil(to_double(a) - to_double(b))).
//
// The return value follows Go's usual cmp convention (negative, zero, or
// positive), not necessarily the literal ceil() magnitude: only the sign
// is load-bearing for tree ordering, and returning the full float
// magnitude as an int would risk silent overflow on huge values.
func Compare(a, b *Value) (int, error) {
	if a == nil || b == nil {
		return 0, ErrNilValue
	}

	if a.Type == TypeNull || b.Type == TypeNull {
		an := a.Type == TypeNull
		bn := b.Type == TypeNull
		switch {
		case an && bn:
			return 0, nil
		case an:
			return -1, nil
		default:
			return 1, nil
		}
	}

	if a.Type == b.Type {
		if a.Type.IsBuffer() {
			return bytes.Compare(a.buf.Live(), b.buf.Live()), nil
		}
		return numericSign(a, b)
	}

	aBuf, bBuf := a.Type.IsBuffer(), b.Type.IsBuffer()
	if aBuf != bBuf {
		var buf, other *Value
		var otherIsA bool
		if aBuf {
			buf, other = a, b
		} else {
			buf, other = b, a
			otherIsA = true
		}

		scratch := make([]byte, 256)
		n, err := ToString(other, scratch)
		if err != nil {
			return 0, err
		}
		otherStr := scratch[:n]
		bufStr := buf.buf.Live()

		if len(otherStr) == len(bufStr) {
			c := bytes.Compare(otherStr, bufStr)
			if otherIsA {
				return c, nil
			}
			return -c, nil
		}
		return numericSign(a, b)
	}

	// Both buffer (string vs bytes): byte comparison of the live
	// contents. Both non-buffer of differing scalar types: numeric
	// comparison.
	if aBuf && bBuf {
		return bytes.Compare(a.buf.Live(), b.buf.Live()), nil
	}
	return numericSign(a, b)
}

func numericSign(a, b *Value) (int, error) {
	da, err := a.ToDouble()
	if err != nil {
		return 0, err
	}
	db, err := b.ToDouble()
	if err != nil {
		return 0, err
	}
	d := math.Ceil(da - db)
	switch {
	case d > 0:
		return 1, nil
	case d < 0:
		return -1, nil
	default:
		return 0, nil
	}
}
