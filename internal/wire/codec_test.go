package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgWriterReaderRoundTrip(t *testing.T) {
	w := NewArgWriter()
	w.PutUint32(42)
	w.PutInt32(-7)
	w.PutFixed(FixedFromFloat64(3.5))
	w.PutString("wl_surface")
	w.PutArray([]byte{1, 2, 3, 4, 5})

	r := NewArgReader(w.Bytes(), nil)

	u, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(42), u)

	i, err := r.Int32()
	require.NoError(t, err)
	require.Equal(t, int32(-7), i)

	f, err := r.Fixed()
	require.NoError(t, err)
	require.InDelta(t, 3.5, f.ToFloat64(), 1e-9)

	s, err := r.String()
	require.NoError(t, err)
	require.Equal(t, "wl_surface", s)

	a, err := r.Array()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, a)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Sender: 12, Opcode: 3, Size: 16}
	got := decodeHeader(encodeHeader(h))
	require.Equal(t, h, got)
}

func TestFixedConversions(t *testing.T) {
	require.Equal(t, 10, FixedFromInt(10).ToInt())
	require.InDelta(t, -2.25, FixedFromFloat64(-2.25).ToFloat64(), 1e-9)
}

func TestPad4(t *testing.T) {
	require.Equal(t, 0, pad4(0))
	require.Equal(t, 4, pad4(1))
	require.Equal(t, 4, pad4(4))
	require.Equal(t, 8, pad4(5))
}
