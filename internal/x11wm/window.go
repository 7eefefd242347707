package x11wm

import "github.com/jezek/xgb/xproto"

// State is a window's position in the lifecycle spec.md §4.6 describes:
// Created -> Reparented (we own a frame) -> Mapped (MapRequest seen,
// Wayland side paired) -> (transient) Unmapped.
type State int

const (
	Created State = iota
	Reparented
	Mapped
	Unmapped
)

// Window is one X11 client window tracked by the bridge.
type Window struct {
	ID     xproto.Window
	Frame  xproto.Window
	State  State
	Managed bool // MapRequest seen (true) vs override-redirect or post-unmap (false)

	AppID string

	// Containerised (game) windowing, spec.md §4.6.
	Containerised      bool
	ViewportOverride   bool
	ViewportW, ViewportH int32
	AspectRatio        float64

	// Screen-position/size emulation, spec.md §4.6.
	EmulateRect bool
	EmulatedX, EmulatedY, EmulatedWidth, EmulatedHeight int32

	configure configureState
}

// Reparent transitions Created -> Reparented once the bridge has created
// and reparented the window into its own frame.
func (w *Window) Reparent(frame xproto.Window) {
	w.Frame = frame
	w.State = Reparented
}

// Map transitions to Mapped on MapRequest and marks the window managed.
func (w *Window) Map() {
	w.State = Mapped
	w.Managed = true
}

// Unmap transitions to Unmapped. Managed is cleared: spec.md §4.6 "managed
// flag may become ... false ... after unmap".
func (w *Window) Unmap() {
	w.State = Unmapped
	w.Managed = false
}

// MarkOverrideRedirect clears Managed for an override-redirect window
// (a window that never goes through MapRequest reconciliation, e.g. a
// tooltip or menu).
func (w *Window) MarkOverrideRedirect() {
	w.Managed = false
}
