package value

import "encoding/binary"

// FromRaw copies a primitive at the (conceptual) source pointer `data`,
// sized per v.Type, into v. For string it copies up to capacity-1 bytes
// and NUL-terminates; for bytes it copies min(len(data), capacity).
// Returns Unchanged if the destination already held the same bytes,
// else Updated. Buffers are never grown by FromRaw (spec §4.1;
// use FromBuffer to grow).
func FromRaw(v *Value, data []byte) (Status, error) {
	if v == nil {
		return Unchanged, ErrNilValue
	}
	ti, err := infoOf(v.Type)
	if err != nil {
		return Unchanged, err
	}

	if ti.kind == kindBuffer {
		return copyIntoBuffer(v, data, false)
	}

	width := ti.size
	var raw [8]byte
	n := width
	if n > len(data) {
		n = len(data)
	}
	copy(raw[:n], data[:n])
	newBits := binary.LittleEndian.Uint64(raw[:])

	if v.bits == newBits {
		return Unchanged, nil
	}
	v.bits = newBits
	return Updated, nil
}

// FromBuffer is like FromRaw but for buffer-typed values only, and grows
// the backing allocation to (size + isString)*2 when it is too small
// (spec §4.1 "from_buffer").
func FromBuffer(v *Value, data []byte) (Status, error) {
	if v == nil {
		return Unchanged, ErrNilValue
	}
	if !v.Type.IsBuffer() {
		return Unchanged, ErrNotBuffer
	}
	return copyIntoBuffer(v, data, true)
}

func copyIntoBuffer(v *Value, data []byte, grow bool) (Status, error) {
	isString := 0
	if v.Type == TypeString {
		isString = 1
	}

	needed := len(data)
	if isString == 1 {
		needed++ // NUL terminator
	}

	if grow && needed > v.buf.Capacity() {
		newCap := (len(data) + isString) * 2
		if newCap < 1 {
			newCap = 1
		}
		grown := make([]byte, newCap)
		copy(grown, v.buf.Data[:v.buf.Used])
		v.buf.Data = grown
	}

	cap := v.buf.Capacity()
	var toCopy int
	if v.Type == TypeString {
		toCopy = cap - 1
		if toCopy < 0 {
			toCopy = 0
		}
		if toCopy > len(data) {
			toCopy = len(data)
		}
	} else {
		toCopy = len(data)
		if toCopy > cap {
			toCopy = cap
		}
	}

	same := toCopy == v.buf.Used
	if same {
		for i := 0; i < toCopy; i++ {
			if v.buf.Data[i] != data[i] {
				same = false
				break
			}
		}
	}

	if same {
		return Unchanged, nil
	}

	copy(v.buf.Data, data[:toCopy])
	if v.Type == TypeString && cap > 0 {
		v.buf.Data[toCopy] = 0
	}
	v.buf.Used = toCopy
	return Updated, nil
}

// ToRaw writes the scalar bit pattern into dst, returning the number of
// bytes written (the type's width). It is the inverse of FromRaw for the
// round-trip property P3.
func ToRaw(v *Value, dst []byte) (int, error) {
	if v == nil {
		return 0, ErrNilValue
	}
	ti, err := infoOf(v.Type)
	if err != nil {
		return 0, err
	}
	if ti.kind == kindBuffer {
		return 0, ErrNotBuffer
	}
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], v.bits)
	n := copy(dst, raw[:ti.size])
	return n, nil
}
