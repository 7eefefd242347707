package seatinput

// Accelerator is one entry in the host-intercepted accelerator list
// (spec.md §4.5): a modifier mask plus keysym that, when matched, is
// swallowed rather than forwarded to the guest.
type Accelerator struct {
	Modifiers uint32
	Keysym    uint32
}

// Keyboard tracks one host seat's keyboard: the pressed-key set (so a
// held-but-not-yet-released key is never reported twice, and a release
// for a key never reported pressed is ignored), the cached modifier mask
// from xkb state, and the accelerator swallow table.
type Keyboard struct {
	pressed       map[uint32]struct{}
	modifierMask  uint32
	accelerators  []Accelerator
	extendedAck   bool // extended-keyboard protocol negotiated
}

func NewKeyboard(accelerators []Accelerator, extendedAck bool) *Keyboard {
	return &Keyboard{
		pressed:      make(map[uint32]struct{}),
		accelerators: accelerators,
		extendedAck:  extendedAck,
	}
}

// SetModifierMask is called whenever xkb state changes (modifier or
// group), per spec.md §4.5: "modifier mask is recomputed from xkb state
// and cached for the accelerator comparison."
func (k *Keyboard) SetModifierMask(mask uint32) { k.modifierMask = mask }

// KeyResult reports what a keyboard router should do with one key event.
type KeyResult int

const (
	// Forward means deliver the event to the guest unchanged.
	Forward KeyResult = iota
	// Swallow means the event matched an accelerator and the guest never
	// sees it.
	Swallow
	// SwallowAckNotHandled is Swallow, plus (when the extended-keyboard
	// protocol is negotiated) an explicit "not handled" ack so the host
	// still acts on the accelerator itself.
	SwallowAckNotHandled
	// Ignore means this is a duplicate press or an unmatched release and
	// should be dropped entirely (no state change, no forward).
	Ignore
)

// Key processes one press/release. key is the raw keycode (used for
// pressed-set membership); for accelerator matching it is paired with the
// keysym the caller already resolved from xkb state.
func (k *Keyboard) Key(key uint32, keysym uint32, pressed bool) KeyResult {
	_, wasPressed := k.pressed[key]
	if pressed {
		if wasPressed {
			return Ignore
		}
		k.pressed[key] = struct{}{}
		if k.matchAccelerator(keysym) {
			if k.extendedAck {
				return SwallowAckNotHandled
			}
			return Swallow
		}
		return Forward
	}

	if !wasPressed {
		return Ignore
	}
	delete(k.pressed, key)
	return Forward
}

func (k *Keyboard) matchAccelerator(keysym uint32) bool {
	for _, a := range k.accelerators {
		if a.Keysym == keysym && a.Modifiers == k.modifierMask {
			return true
		}
	}
	return false
}

// PressedCount reports the number of keys the keyboard currently
// considers held; useful for tests and for forcing an all-keys-released
// event on focus loss.
func (k *Keyboard) PressedCount() int { return len(k.pressed) }
