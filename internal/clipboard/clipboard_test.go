package clipboard

import (
	"errors"
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/require"

	"go.chromium.org/sommelier/internal/sommerr"
)

func TestTransferDirectPayloadUnderChunkSize(t *testing.T) {
	tr := NewTransfer(X11ToHost, "text/plain;charset=utf-8")
	tr.Write([]byte("hello clipboard"))
	tr.CloseWrite()

	chunk, final, ok := tr.NextChunk()
	require.True(t, ok)
	require.True(t, final)
	require.Equal(t, "hello clipboard", string(chunk))
	require.Equal(t, PhaseDone, tr.Phase())
	require.False(t, tr.IsIncr())
}

func TestTransferSwitchesToIncrAboveChunkSize(t *testing.T) {
	tr := NewTransfer(X11ToHost, "text/plain;charset=utf-8")
	big := make([]byte, ChunkSize+1)
	tr.Write(big)
	require.Equal(t, PhaseIncrAnnounced, tr.Phase())
	require.True(t, tr.IsIncr())
}

func TestTransferIncrChunksThenZeroLengthTerminator(t *testing.T) {
	tr := NewTransfer(HostToX11, "text/plain;charset=utf-8")
	payload := make([]byte, ChunkSize*2+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	tr.Write(payload)
	tr.CloseWrite()

	var received []byte
	for {
		chunk, final, ok := tr.NextChunk()
		require.True(t, ok)
		received = append(received, chunk...)
		if final {
			break
		}
	}
	require.Equal(t, payload, received)
	require.Equal(t, PhaseDone, tr.Phase())
}

func TestTransferNotReadyBeforeEOFInDirectMode(t *testing.T) {
	tr := NewTransfer(X11ToHost, "text/plain")
	tr.Write([]byte("partial"))
	_, _, ok := tr.NextChunk()
	require.False(t, ok, "direct-mode transfer must wait for CloseWrite before handing back a chunk")
}

func TestTransferCancel(t *testing.T) {
	tr := NewTransfer(X11ToHost, "text/plain")
	tr.Write([]byte("data"))
	tr.Cancel()
	require.Equal(t, PhaseCancelled, tr.Phase())
	_, _, ok := tr.NextChunk()
	require.False(t, ok)
}

func TestBridgeSetOffersCancelsPriorX11Transfer(t *testing.T) {
	b := NewBridge()
	tr := b.BeginHostToX11("text/plain")
	b.SetOffers([]GuestOffer{{MimeType: "text/plain"}})
	require.Equal(t, PhaseCancelled, tr.Phase())
}

func TestBridgeCancelAllCancelsBothDirections(t *testing.T) {
	b := NewBridge()
	toX11 := b.BeginHostToX11("text/plain")
	toHost := b.BeginX11ToHost("text/plain")
	b.CancelAll()
	require.Equal(t, PhaseCancelled, toX11.Phase())
	require.Equal(t, PhaseCancelled, toHost.Phase())
}

func TestBridgeOnPipeErrorCancelsOnlyThatDirection(t *testing.T) {
	b := NewBridge()
	toX11 := b.BeginHostToX11("text/plain")
	toHost := b.BeginX11ToHost("text/plain")
	err := b.OnPipeError(HostToX11)
	require.True(t, errors.Is(err, sommerr.ErrClipboardIO))
	require.Equal(t, PhaseCancelled, toX11.Phase())
	require.NotEqual(t, PhaseCancelled, toHost.Phase())
}

type fakeAtomCache struct {
	byName map[string]xproto.Atom
}

func (f *fakeAtomCache) Get(name string) (xproto.Atom, error) {
	return f.byName[name], nil
}

func (f *fakeAtomCache) InternBatch(names []string) (map[string]xproto.Atom, error) {
	out := make(map[string]xproto.Atom, len(names))
	for _, n := range names {
		out[n] = f.byName[n]
	}
	return out, nil
}

func TestBuildTargetsAtomsIncludesTargetsAndTimestamp(t *testing.T) {
	cache := &fakeAtomCache{byName: map[string]xproto.Atom{
		"text/plain": 50,
		AtomTargets:  10,
		AtomTimestamp: 20,
	}}
	atoms, err := BuildTargetsAtoms(cache, []GuestOffer{{MimeType: "text/plain"}})
	require.NoError(t, err)
	require.ElementsMatch(t, []xproto.Atom{10, 20, 50}, atoms)
}

func TestMimeForAtomResolvesOffer(t *testing.T) {
	cache := &fakeAtomCache{byName: map[string]xproto.Atom{"text/plain;charset=utf-8": 77}}
	offers := []GuestOffer{{MimeType: "text/plain;charset=utf-8"}}
	mime, ok := MimeForAtom(cache, offers, 77)
	require.True(t, ok)
	require.Equal(t, "text/plain;charset=utf-8", mime)

	_, ok = MimeForAtom(cache, offers, 999)
	require.False(t, ok)
}

func TestNamesForAtomsFiltersUnknown(t *testing.T) {
	names := map[xproto.Atom]string{30: "text/plain", 40: "text/html"}
	got := NamesForAtoms(names, []xproto.Atom{30, 999, 40})
	require.ElementsMatch(t, []string{"text/plain", "text/html"}, got)
}
