package wasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUlebVectors(t *testing.T) {
	cases := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, AppendUleb(nil, c.value), "encoding %d", c.value)
	}
}

func TestUlebRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 255, 256, 16383, 16384, 1 << 32, math.MaxUint32, math.MaxUint64}
	for v := uint64(0); v < 70000; v += 97 {
		values = append(values, v)
	}

	for _, v := range values {
		enc := AppendUleb(nil, v)
		dec, n, err := ReadUleb(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec)
		assert.Equal(t, len(enc), n)
	}
}

func TestSlebVectors(t *testing.T) {
	cases := []struct {
		value int64
		want  []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, AppendSleb(nil, c.value), "encoding %d", c.value)
	}
}

func TestSlebRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 64, -65, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}
	for v := int64(-50000); v < 50000; v += 113 {
		values = append(values, v)
	}

	for _, v := range values {
		enc := AppendSleb(nil, v)
		dec, n, err := ReadSleb(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec)
		assert.Equal(t, len(enc), n)
	}
}

func TestLebErrors(t *testing.T) {
	_, _, err := ReadUleb([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, ErrLEBTruncated)

	_, _, err = ReadSleb(nil)
	assert.ErrorIs(t, err, ErrLEBTruncated)

	long := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, _, err = ReadUleb(long)
	assert.ErrorIs(t, err, ErrLEBOverflow)

	// Trailing bytes are left for the caller.
	v, n, err := ReadUleb([]byte{0xac, 0x02, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), v)
	assert.Equal(t, 2, n)
}
