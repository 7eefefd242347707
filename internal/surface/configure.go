package surface

import "go.chromium.org/sommelier/internal/x11wm"

// ConfigureTracker is the minimal ack-configure obligation a Surface
// checks on every commit (spec.md §4.4 rule 1). Most guest surfaces
// (popups, cursors, subsurfaces) have none; a toplevel does.
type ConfigureTracker interface {
	// CommitMatches reports the serial to ack and true when a commit of
	// the given pixel size satisfies the surface's pending configure.
	CommitMatches(width, height int32) (serial uint32, ok bool)
}

// pendingConfigure is the configure a plain (non-X11) Wayland toplevel is
// waiting to have ack'd: the serial from the host's xdg_surface.configure
// and the width/height its paired xdg_toplevel.configure most recently
// announced.
type pendingConfigure struct {
	serial        uint32
	width, height int32
}

// PlainConfigureTracker implements ConfigureTracker for a guest toplevel
// with no X11 Window Manager bridge involvement: there is no
// ConfigureRequest/barrier dance (spec.md §4.6's reconciliation state
// machine is X11-specific), just a single pending (serial, size) pair.
type PlainConfigureTracker struct {
	pending *pendingConfigure
}

// SetPending records a new host configure awaiting ack. A zero width or
// height (the usual "you choose" xdg_toplevel.configure) means any
// commit size satisfies it.
func (t *PlainConfigureTracker) SetPending(serial uint32, width, height int32) {
	t.pending = &pendingConfigure{serial: serial, width: width, height: height}
}

// CommitMatches implements ConfigureTracker.
func (t *PlainConfigureTracker) CommitMatches(width, height int32) (uint32, bool) {
	if t.pending == nil {
		return 0, false
	}
	p := t.pending
	if p.width != 0 && p.width != width {
		return 0, false
	}
	if p.height != 0 && p.height != height {
		return 0, false
	}
	serial := p.serial
	t.pending = nil
	return serial, true
}

// X11ConfigureTracker implements ConfigureTracker by delegating to an
// x11wm.Window's own configure-reconciliation state machine, which
// already applies the containerised/viewport-override size substitution
// spec.md §4.4 names ("or viewport-override size for containerised
// windows"). Kept as a thin adaptor rather than duplicating that rule
// here, since x11wm.Window.CommitMatches already implements it.
type X11ConfigureTracker struct {
	Window *x11wm.Window
}

// CommitMatches implements ConfigureTracker.
func (t X11ConfigureTracker) CommitMatches(width, height int32) (uint32, bool) {
	cfg, ok := t.Window.CommitMatches(width, height)
	if !ok {
		return 0, false
	}
	return cfg.Serial, true
}
