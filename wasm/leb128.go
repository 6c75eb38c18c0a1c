package wasm

import "errors"

// ErrLEBOverflow is returned when a variable-length integer is too long for
// its declared width.
var ErrLEBOverflow = errors.New("leb128: integer overflows 64 bits")

// ErrLEBTruncated is returned when the input ends in the middle of a
// variable-length integer.
var ErrLEBTruncated = errors.New("leb128: unexpected end of input")

// AppendUleb appends the unsigned LEB128 encoding of v to b.
func AppendUleb(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}

		b = append(b, c)

		if v == 0 {
			return b
		}
	}
}

// AppendSleb appends the signed LEB128 encoding of v to b.
func AppendSleb(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7

		// Done once the remaining bits are pure sign extension of the
		// sign bit just written.
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(b, c)
		}

		b = append(b, c|0x80)
	}
}

// ReadUleb decodes an unsigned LEB128 integer from the front of b.  It returns
// the value and the number of bytes consumed.
func ReadUleb(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint

	for i, c := range b {
		if shift >= 64 || (shift == 63 && c > 1) {
			return 0, 0, ErrLEBOverflow
		}

		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}

		shift += 7
	}

	return 0, 0, ErrLEBTruncated
}

// ReadSleb decodes a signed LEB128 integer from the front of b.
func ReadSleb(b []byte) (int64, int, error) {
	var result int64
	var shift uint

	for i, c := range b {
		if shift >= 64 {
			return 0, 0, ErrLEBOverflow
		}

		result |= int64(c&0x7f) << shift
		shift += 7

		if c&0x80 == 0 {
			if shift < 64 && c&0x40 != 0 {
				result |= -1 << shift
			}

			return result, i + 1, nil
		}
	}

	return 0, 0, ErrLEBTruncated
}
