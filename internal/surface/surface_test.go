package surface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"go.chromium.org/sommelier/internal/scale"
	"go.chromium.org/sommelier/internal/sommerr"
	"go.chromium.org/sommelier/internal/x11wm"
)

func TestShmBufferReleasesOnCopyCompletionNotHostRelease(t *testing.T) {
	b := NewShmBuffer(7)

	require.True(t, b.CompleteCopy())
	require.True(t, b.Released())

	// The copy already released the guest buffer; a later host release
	// of the translated buffer must not double-fire.
	require.False(t, b.HostRelease())
	require.False(t, b.CompleteCopy())
}

func TestHostNativeBufferReleasesOnHostRelease(t *testing.T) {
	b := NewHostNativeBuffer(3)

	require.False(t, b.Released())
	require.True(t, b.HostRelease())
	require.True(t, b.Released())
	require.False(t, b.HostRelease())
}

func TestDRMPrimeBufferNeedsStrideFixupOnMismatch(t *testing.T) {
	same := NewDRMPrimeBuffer(1, 4096, 4096)
	require.False(t, same.NeedsStrideFixup())

	mismatched := NewDRMPrimeBuffer(2, 4096, 4224)
	require.True(t, mismatched.NeedsStrideFixup())
}

func TestPlainConfigureTrackerMatchesExactSize(t *testing.T) {
	var tr PlainConfigureTracker
	tr.SetPending(9, 640, 480)

	_, ok := tr.CommitMatches(640, 479)
	require.False(t, ok)

	serial, ok := tr.CommitMatches(640, 480)
	require.True(t, ok)
	require.Equal(t, uint32(9), serial)

	// Consumed: a second commit of the same size has nothing pending.
	_, ok = tr.CommitMatches(640, 480)
	require.False(t, ok)
}

func TestPlainConfigureTrackerZeroSizeMatchesAnyCommit(t *testing.T) {
	var tr PlainConfigureTracker
	tr.SetPending(1, 0, 0)

	serial, ok := tr.CommitMatches(1920, 1080)
	require.True(t, ok)
	require.Equal(t, uint32(1), serial)
}

func TestX11ConfigureTrackerUsesViewportSizeWhenContainerised(t *testing.T) {
	w := &x11wm.Window{Containerised: true, ViewportOverride: true, ViewportW: 800, ViewportH: 600}
	w.HostConfigure(x11wm.Config{Width: 1920, Height: 1080})
	_, ok := w.AckConfigure(5)
	require.True(t, ok)

	tr := X11ConfigureTracker{Window: w}

	_, ok = tr.CommitMatches(1920, 1080)
	require.False(t, ok, "containerised window should match the viewport size, not the raw configure size")

	serial, ok := tr.CommitMatches(800, 600)
	require.True(t, ok)
	require.Equal(t, uint32(5), serial)
}

func TestSurfaceCommitAcksAndTransformsDamage(t *testing.T) {
	var tr PlainConfigureTracker
	tr.SetPending(11, 100, 100)

	s := &Surface{
		Scale:     scale.Context{Scale: 2.0},
		Configure: &tr,
	}

	buf := NewShmBuffer(1)
	res := s.Commit(buf, 100, 100, []DamageRect{{X1: 0, Y1: 0, X2: 10, Y2: 10}})

	require.True(t, res.ShouldAck)
	require.Equal(t, uint32(11), res.AckSerial)
	require.True(t, res.ReleaseGuestBufferNow)
	require.Len(t, res.Damage, 1)
	// DamageCoord outsets by one pixel on each side before scaling by 2.
	require.Equal(t, HostDamageRect{X1: -2, Y1: -2, X2: 22, Y2: 22}, res.Damage[0])
}

func TestSurfaceCommitNoAckWhenSizeDoesNotMatch(t *testing.T) {
	var tr PlainConfigureTracker
	tr.SetPending(11, 100, 100)

	s := &Surface{Configure: &tr}
	res := s.Commit(nil, 50, 50, nil)

	require.False(t, res.ShouldAck)
	require.Empty(t, res.Damage)
}

func TestSurfaceCommitWithoutConfigureTrackerNeverAcks(t *testing.T) {
	s := &Surface{}
	res := s.Commit(nil, 640, 480, nil)
	require.False(t, res.ShouldAck)
}

func TestHandleTranslationFailureFallsBackAndClearsShape(t *testing.T) {
	s := &Surface{ShapedContent: true}
	buf := NewDRMPrimeBuffer(4, 4096, 4224)

	err := s.HandleTranslationFailure(buf)
	require.True(t, errors.Is(err, sommerr.ErrBufferTranslation))
	require.False(t, s.ShapedContent)
	require.Equal(t, BufferHostNative, buf.Source)
	require.False(t, buf.NeedsStrideFixup())
}
