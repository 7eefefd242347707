package x11wm

// ConfigurePhase is the event-barrier state machine from spec.md §4.6:
// a ConfigureRequest forwarded to the host installs a one-shot sync
// barrier; host configures arriving before the barrier's `done` are
// coalesced to just the most recent and applied only once the barrier
// fires, so stale host coordinates never clobber a fresh client request.
type ConfigurePhase int

const (
	// PhaseIdle: no outstanding ConfigureRequest/barrier; host configures
	// are applied as they arrive.
	PhaseIdle ConfigurePhase = iota
	// PhaseAwaitingBarrier: a sync callback was installed after sending
	// set_window_bounds; host configures are coalesced, not applied.
	PhaseAwaitingBarrier
	// PhaseAwaitingAck: the post-barrier configure computed next_config
	// and is waiting for the matching xdg_surface.configure(serial) to
	// promote it to pending_config.
	PhaseAwaitingAck
	// PhaseAwaitingCommit: pending_config has been applied to the X11
	// frame/client windows and is waiting for the paired-surface commit
	// that matches its size before it is considered ack'd.
	PhaseAwaitingCommit
)

// Config is one configuration snapshot: the changed-field values plus the
// _NET_WM_STATE atoms that should be set once this config is applied.
type Config struct {
	X, Y, Width, Height int32
	States              []string // atom names, e.g. AtomNetWMStateFullscreen
	Serial              uint32   // the xdg_surface.configure serial this corresponds to, once known
}

// configureState holds one Window's in-flight reconciliation state.
type configureState struct {
	phase ConfigurePhase

	coalesced  *Config // most recent host configure seen while AwaitingBarrier
	nextConfig *Config // computed on each host configure once past the barrier
	pending    *Config // promoted from nextConfig when its ack arrives
}

// BeginBarrier is called after forwarding a ConfigureRequest's position
// via set_window_bounds (spec.md §4.6 rule 1); it installs the one-shot
// sync barrier (rule 2).
func (w *Window) BeginBarrier() {
	w.configure.phase = PhaseAwaitingBarrier
	w.configure.coalesced = nil
}

// HostConfigure is called on every xdg_toplevel/aura_toplevel configure.
// While a barrier is outstanding, only the most recent is kept; outside
// of one, it is recorded as next_config immediately.
func (w *Window) HostConfigure(c Config) {
	switch w.configure.phase {
	case PhaseAwaitingBarrier:
		w.configure.coalesced = &c
	default:
		w.configure.nextConfig = &c
		w.configure.phase = PhaseAwaitingAck
	}
}

// BarrierDone is called when the one-shot sync callback's `done` event
// fires: the most recent coalesced configure (if any) becomes
// next_config, and the machine starts waiting for its ack.
func (w *Window) BarrierDone() {
	if w.configure.coalesced != nil {
		w.configure.nextConfig = w.configure.coalesced
		w.configure.coalesced = nil
		w.configure.phase = PhaseAwaitingAck
	} else {
		w.configure.phase = PhaseIdle
	}
}

// AckConfigure is called when xdg_surface.configure(serial) arrives for
// the surface paired with this window: next_config is promoted to
// pending_config (spec.md §4.6 rule 3), ready for the caller to apply to
// the X11 frame/client windows and replace _NET_WM_STATE.
func (w *Window) AckConfigure(serial uint32) (Config, bool) {
	if w.configure.phase != PhaseAwaitingAck || w.configure.nextConfig == nil {
		return Config{}, false
	}
	cfg := *w.configure.nextConfig
	cfg.Serial = serial
	w.configure.pending = &cfg
	w.configure.nextConfig = nil
	w.configure.phase = PhaseAwaitingCommit
	return cfg, true
}

// CommitMatches is called on every paired-surface commit; if the
// committed size matches the pending configure (or, for a containerised
// window, its viewport size), the pending configure is considered ack'd
// and the machine returns to idle (spec.md §4.6 rule 4).
func (w *Window) CommitMatches(width, height int32) (Config, bool) {
	if w.configure.phase != PhaseAwaitingCommit || w.configure.pending == nil {
		return Config{}, false
	}
	targetW, targetH := w.configure.pending.Width, w.configure.pending.Height
	if w.Containerised && w.ViewportOverride {
		targetW, targetH = w.ViewportW, w.ViewportH
	}
	if width != targetW || height != targetH {
		return Config{}, false
	}
	cfg := *w.configure.pending
	w.configure.pending = nil
	w.configure.phase = PhaseIdle
	return cfg, true
}

// Phase reports the current reconciliation phase, mostly for tests.
func (w *Window) Phase() ConfigurePhase { return w.configure.phase }
