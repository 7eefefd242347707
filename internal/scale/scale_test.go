package scale

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.chromium.org/sommelier/internal/wire"
)

// Property 3: position round-trip for an exact-ratio scale (spec.md §8,
// property 3: host_to_guest(guest_to_host(x,y)) == (x,y) over [0,8192]^2).
// Scale=2.0 is an exact ratio so truncation never loses a bit.
func TestPositionRoundTripExactScale(t *testing.T) {
	c := Context{Scale: 2.0}
	for x := int32(0); x <= 8192; x += 137 {
		for y := int32(0); y <= 8192; y += 211 {
			hx, hy := GuestToHost(c, nil, x, y)
			gx, gy := HostToGuest(c, nil, hx, hy)
			require.Equal(t, x, gx)
			require.Equal(t, y, gy)
		}
	}
}

// Property 3, round-flag path: a non-exact ratio loses precision under
// plain truncation: the round flag recovers exact round-trip.
func TestPositionRoundTripWithRoundFlag(t *testing.T) {
	c := Context{Scale: 1.5}
	s := &Surface{RoundX: true, RoundY: true}
	hx, hy := GuestToHost(c, s, 3, 3)
	gx, gy := HostToGuest(c, s, hx, hy)
	require.Equal(t, int32(3), gx)
	require.Equal(t, int32(3), gy)
}

// Property 4: guest_to_host_size(host_to_guest_size(w,h)) >= (w,h); never
// shrinks below the original when probing, default (non-stable) rounding.
func TestSizeRoundTripNeverShrinks(t *testing.T) {
	c := Context{Scale: 3.0}
	for _, wh := range [][2]int32{{10, 10}, {7, 13}, {1080, 1920}, {100, 1}} {
		px, py := HostToGuestSize(c, nil, wh[0], wh[1])
		hw, hh := GuestToHostSize(c, nil, px, py)
		require.GreaterOrEqual(t, hw, wh[0])
		require.GreaterOrEqual(t, hh, wh[1])
	}
}

func TestOutputDimensionsTruncatesTowardZero(t *testing.T) {
	c := Context{Scale: 0.6667}
	w, h := OutputDimensions(c, 1920, 1080)
	require.Equal(t, int32(1280), w) // 1920*0.6667 = 1280.064 -> trunc 1280
	require.Equal(t, int32(720), h)  // 1080*0.6667 = 720.036  -> trunc 720
}

func TestViewportScaleOffWhenSpacesMatch(t *testing.T) {
	c := Context{Scale: 1}
	_, _, needed := ViewportScale(c, nil, 1, 1920, 1080)
	require.False(t, needed)
}

func TestViewportScaleOnWhenScaled(t *testing.T) {
	c := Context{Scale: 1.5}
	w, h, needed := ViewportScale(c, nil, 1, 1280, 720)
	require.True(t, needed)
	require.Equal(t, int32(1920), w)
	require.Equal(t, int32(1080), h)
}

func TestTryWindowScaleNoOpOutsideDirectScale(t *testing.T) {
	c := Context{Scale: 1.3, DirectScale: false}
	s := &Surface{}
	TryWindowScale(c, s, 1920, 1080)
	require.False(t, s.HasOwnScale)
}

func TestTryWindowScaleSetsOverrideOnMismatch(t *testing.T) {
	c := Context{DirectScale: true, XdgScaleX: 1.3, XdgScaleY: 1.3}
	s := &Surface{}
	TryWindowScale(c, s, 1001, 1001)
	require.True(t, s.HasOwnScale, "expected the probe to detect a non-round-tripping size")
	// the recorded per-surface scale must round-trip without losing pixels
	// (outward rounding guarantees >=, exact equality depends on float
	// precision of the recorded ratio).
	hw, hh := sizeGuestToHost(c, s, 1001, 1001)
	gw, gh := sizeHostToGuest(c, s, hw, hh)
	require.GreaterOrEqual(t, gw, int32(1001))
	require.GreaterOrEqual(t, gh, int32(1001))
}

func TestResetSurfaceScale(t *testing.T) {
	s := &Surface{HasOwnScale: true, XdgScaleX: 2, XdgScaleY: 2, RoundX: true}
	ResetSurfaceScale(s)
	require.False(t, s.HasOwnScale)
	require.Zero(t, s.XdgScaleX)
	require.False(t, s.RoundX)
}

func TestDamageCoordOutsetsByOnePixel(t *testing.T) {
	c := Context{Scale: 1}
	x1, y1, x2, y2 := DamageCoord(c, nil, 1, 1, 10, 10, 20, 20)
	require.Equal(t, int64(9), x1)
	require.Equal(t, int64(9), y1)
	require.Equal(t, int64(21), x2)
	require.Equal(t, int64(21), y2)
}

func TestPointerIsHostToGuest(t *testing.T) {
	c := Context{Scale: 2}
	x, y := Pointer(c, nil, wireFixed(640), wireFixed(360))
	require.InDelta(t, 320, x.ToFloat64(), 0.01)
	require.InDelta(t, 180, y.ToFloat64(), 0.01)
}

func wireFixed(i int) Fixed { return wire.FixedFromInt(i) }
