package x11wm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Property 6 / scenario S8: a stale host configure arriving before the
// barrier's done must never be the one applied; only the post-barrier
// configure reaches AwaitingAck.
func TestBarrierCoalescesToMostRecentConfigure(t *testing.T) {
	w := &Window{}
	w.BeginBarrier()
	require.Equal(t, PhaseAwaitingBarrier, w.Phase())

	w.HostConfigure(Config{Width: 100, Height: 100})
	w.HostConfigure(Config{Width: 200, Height: 200})
	w.HostConfigure(Config{Width: 300, Height: 300}) // stale, then fresher, then freshest

	w.BarrierDone()
	require.Equal(t, PhaseAwaitingAck, w.Phase())

	cfg, ok := w.AckConfigure(42)
	require.True(t, ok)
	require.Equal(t, int32(300), cfg.Width)
	require.Equal(t, uint32(42), cfg.Serial)
}

func TestBarrierWithNoCoalescedConfigureReturnsToIdle(t *testing.T) {
	w := &Window{}
	w.BeginBarrier()
	w.BarrierDone()
	require.Equal(t, PhaseIdle, w.Phase())
}

func TestHostConfigureOutsideBarrierGoesStraightToAwaitingAck(t *testing.T) {
	w := &Window{}
	w.HostConfigure(Config{Width: 50, Height: 50})
	require.Equal(t, PhaseAwaitingAck, w.Phase())
}

func TestAckConfigureFailsOutsideAwaitingAck(t *testing.T) {
	w := &Window{}
	_, ok := w.AckConfigure(1)
	require.False(t, ok)
}

// Property: the pending configure is only considered committed once a
// surface commit matches its size exactly.
func TestCommitMatchesOnlyOnExactSize(t *testing.T) {
	w := &Window{}
	w.HostConfigure(Config{Width: 640, Height: 480})
	w.AckConfigure(7)
	require.Equal(t, PhaseAwaitingCommit, w.Phase())

	_, ok := w.CommitMatches(640, 479)
	require.False(t, ok)
	require.Equal(t, PhaseAwaitingCommit, w.Phase())

	cfg, ok := w.CommitMatches(640, 480)
	require.True(t, ok)
	require.Equal(t, uint32(7), cfg.Serial)
	require.Equal(t, PhaseIdle, w.Phase())
}

func TestCommitMatchesUsesViewportSizeWhenContainerised(t *testing.T) {
	w := &Window{Containerised: true, ViewportOverride: true, ViewportW: 1600, ViewportH: 900}
	w.HostConfigure(Config{Width: 1920, Height: 1080})
	w.AckConfigure(1)

	_, ok := w.CommitMatches(1920, 1080)
	require.False(t, ok, "containerised windows must ack against the viewport size, not the raw host size")

	_, ok = w.CommitMatches(1600, 900)
	require.True(t, ok)
}

func TestDeriveAppIDPrecedence(t *testing.T) {
	require.Equal(t, "org.chromium.guest_os.termina.myapp",
		DeriveAppID(AppIDSources{ConfiguredAppID: "myapp", WMClass: "ignored"}, "termina"))

	require.Equal(t, "org.chromium.guest_os.termina.xprop-app",
		DeriveAppID(AppIDSources{PropertyValue: "xprop-app", WMClass: "ignored"}, "termina"))

	require.Equal(t, "org.chromium.guest_os.termina.Firefox",
		DeriveAppID(AppIDSources{WMClass: "Firefox"}, "termina"))

	require.Equal(t, "org.chromium.guest_os.termina.leader.9",
		DeriveAppID(AppIDSources{WMClientLeader: 9}, "termina"))

	require.Equal(t, "org.chromium.guest_os.termina.window.123",
		DeriveAppID(AppIDSources{WindowID: 123}, "termina"))
}

func TestChooseViewportOverridePreservesAspectRatio(t *testing.T) {
	// native 16:9 content, host proposes a too-wide 21:9 area.
	w, h, ratio := ChooseViewportOverride(2560, 1080, 1920, 1080)
	require.InDelta(t, 16.0/9.0, ratio, 0.001)
	require.Equal(t, int32(1080), h)
	require.InDelta(t, float64(w)/float64(h), 16.0/9.0, 0.01)
}

func TestViewportPointerScale(t *testing.T) {
	require.InDelta(t, 0.5, ViewportPointerScale(960, 1920), 0.001)
}

func TestIsContainerisedRejectsLaunchers(t *testing.T) {
	require.False(t, IsContainerised(440, AtomNetWMWindowTypeNormal, "steam", 0, 0))
	require.True(t, IsContainerised(440, AtomNetWMWindowTypeNormal, "game.exe", 0, 0))
	require.False(t, IsContainerised(0, AtomNetWMWindowTypeNormal, "game.exe", 0, 0))
}
