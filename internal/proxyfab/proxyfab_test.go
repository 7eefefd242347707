package proxyfab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"go.chromium.org/sommelier/internal/sommerr"
	"go.chromium.org/sommelier/internal/wire"
)

type fakeHost struct {
	released bool
	version  uint32
}

func (f *fakeHost) Release(version uint32) error {
	f.released = true
	f.version = version
	return nil
}

func TestNegotiateVersionPicksMinimum(t *testing.T) {
	require.Equal(t, uint32(2), NegotiateVersion(5, 2, 4))
	require.Equal(t, uint32(1), NegotiateVersion(1, 9, 9))
	require.Equal(t, uint32(3), NegotiateVersion(9, 9, 3))
}

// Invariant 1: destroying a pair destroys the paired host proxy and fires
// every registered destroy-listener exactly once.
func TestProxyPairDestroyFiresListenersOnce(t *testing.T) {
	host := &fakeHost{}
	p := NewProxyPair[*fakeHost](42, host, 3)

	fired := 0
	p.OnDestroy(func() { fired++ })
	p.OnDestroy(func() { fired++ })

	require.NoError(t, p.Destroy())
	require.True(t, host.released)
	require.Equal(t, uint32(3), host.version)
	require.Equal(t, 2, fired)

	// idempotent: destroying again is a no-op, not a double-fire.
	require.NoError(t, p.Destroy())
	require.Equal(t, 2, fired)
}

func TestProxyPairWeakHandleObservesDestroy(t *testing.T) {
	p := NewProxyPair[*fakeHost](1, &fakeHost{}, 1)
	h := NewWeakHandle(p, &p.Alive)

	_, ok := h.Get()
	require.True(t, ok)

	require.NoError(t, p.Destroy())
	_, ok = h.Get()
	require.False(t, ok)
}

// fakeGuestTable satisfies GuestTable with no real connection behind it,
// just enough for a Bind closure to prove it received the right one.
type fakeGuestTable struct{}

func (fakeGuestTable) SendEvent(uint32, uint16, *wire.ArgWriter) error { return nil }
func (fakeGuestTable) Lookup(uint32) (wire.Object, bool)               { return nil, false }
func (fakeGuestTable) Insert(wire.Object)                              {}
func (fakeGuestTable) Remove(uint32)                                   {}

func TestRegistryBindNegotiatesAndInvokesHostBind(t *testing.T) {
	r := NewRegistry()
	var gotVersion, gotServerID uint32
	var gotGuest GuestTable
	guest := fakeGuestTable{}
	name := r.Add(&Global{
		Interface: "wl_output",
		Version:   3,
		Bind: func(v uint32, serverID uint32, g GuestTable) error {
			gotVersion, gotServerID, gotGuest = v, serverID, g
			return nil
		},
	})

	version, err := r.Bind(name, 5, 4, 100, guest)
	require.NoError(t, err)
	require.Equal(t, uint32(3), version)
	require.Equal(t, uint32(3), gotVersion)
	require.Equal(t, uint32(100), gotServerID)
	require.Equal(t, guest, gotGuest)
}

func TestRegistryBindUnknownGlobalIsGuestProtocolError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Bind(999, 1, 1, 1, fakeGuestTable{})
	require.Error(t, err)
	require.True(t, errors.Is(err, sommerr.ErrGuestProtocol))
}

// spec.md §4.1: auxiliary guest clients only see globals explicitly marked
// AuxiliaryVisible (wl_seat, wl_data_device_manager, text-input family).
func TestRegistryVisibleToFiltersAuxiliaryClients(t *testing.T) {
	r := NewRegistry()
	r.Add(&Global{Interface: "wl_compositor", AuxiliaryVisible: false})
	r.Add(&Global{Interface: "wl_seat", AuxiliaryVisible: true})

	main := r.VisibleTo(false)
	require.Len(t, main, 2)

	aux := r.VisibleTo(true)
	require.Len(t, aux, 1)
	require.Equal(t, "wl_seat", aux[0].Interface)
}

func TestRegistryRemoveWithdrawsGlobal(t *testing.T) {
	r := NewRegistry()
	name := r.Add(&Global{Interface: "wl_shm"})
	r.Remove(name)

	_, ok := r.Lookup(name)
	require.False(t, ok)
}
