package hostproto

import "go.chromium.org/sommelier/internal/wire"

// Seat capability bits, per wl_seat.capability.
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
	SeatCapabilityTouch    uint32 = 4
)

// Seat is the host proxy for wl_seat: the Seat/Input Router's (spec.md
// §4.5) entry point onto the host's real pointer/keyboard/touch devices,
// which sommelier re-synthesizes events from onto the guest's own wl_seat
// server resource after translating through internal/seatinput.
type Seat struct {
	proxyBase
	capsHandler func(capabilities uint32)
	nameHandler func(name string)
}

// NewSeat allocates the local object id; the caller still owes
// registry.Bind(name, "wl_seat", version, s).
func NewSeat(conn *Conn) *Seat {
	s := &Seat{proxyBase: newProxyBase(conn, "wl_seat")}
	s.register(s)
	return s
}

func (s *Seat) SetCapabilitiesHandler(h func(capabilities uint32)) { s.capsHandler = h }
func (s *Seat) SetNameHandler(h func(name string))                 { s.nameHandler = h }

func (s *Seat) GetPointer() (*Pointer, error) {
	const opGetPointer = 0
	p := &Pointer{proxyBase: newProxyBase(s.conn, "wl_pointer")}
	w := wire.NewArgWriter()
	w.PutUint32(p.id)
	if err := s.request(opGetPointer, w); err != nil {
		return nil, err
	}
	p.register(p)
	return p, nil
}

func (s *Seat) GetKeyboard() (*Keyboard, error) {
	const opGetKeyboard = 1
	k := &Keyboard{proxyBase: newProxyBase(s.conn, "wl_keyboard")}
	w := wire.NewArgWriter()
	w.PutUint32(k.id)
	if err := s.request(opGetKeyboard, w); err != nil {
		return nil, err
	}
	k.register(k)
	return k, nil
}

func (s *Seat) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // capabilities
		caps, _ := args.Uint32()
		if s.capsHandler != nil {
			s.capsHandler(caps)
		}
	case 1: // name
		name, _ := args.String()
		if s.nameHandler != nil {
			s.nameHandler(name)
		}
	}
	return nil
}

// PointerEvent is the subset of wl_pointer events internal/seatinput's
// host->guest direction translates, bundled per spec.md §9's "one
// struct per wire event" ambient style.
type PointerEvent struct {
	SurfaceName    uint32
	X, Y           wire.Fixed
	Button, State  uint32
	Axis, AxisVal  uint32
}

// Pointer is the host proxy for wl_pointer.
type Pointer struct {
	proxyBase
	enterHandler  func(serial, surfaceName uint32, x, y wire.Fixed)
	leaveHandler  func(serial, surfaceName uint32)
	motionHandler func(time uint32, x, y wire.Fixed)
	buttonHandler func(serial, time, button, state uint32)
	axisHandler   func(time, axis uint32, value wire.Fixed)
}

func (p *Pointer) SetEnterHandler(h func(serial, surfaceName uint32, x, y wire.Fixed))  { p.enterHandler = h }
func (p *Pointer) SetLeaveHandler(h func(serial, surfaceName uint32))                   { p.leaveHandler = h }
func (p *Pointer) SetMotionHandler(h func(time uint32, x, y wire.Fixed))                { p.motionHandler = h }
func (p *Pointer) SetButtonHandler(h func(serial, time, button, state uint32))          { p.buttonHandler = h }
func (p *Pointer) SetAxisHandler(h func(time, axis uint32, value wire.Fixed))           { p.axisHandler = h }

func (p *Pointer) Release() error { return p.destroyRequest(1) }

func (p *Pointer) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // enter
		serial, _ := args.Uint32()
		surface, _ := args.Uint32()
		x, _ := args.Fixed()
		y, _ := args.Fixed()
		if p.enterHandler != nil {
			p.enterHandler(serial, surface, x, y)
		}
	case 1: // leave
		serial, _ := args.Uint32()
		surface, _ := args.Uint32()
		if p.leaveHandler != nil {
			p.leaveHandler(serial, surface)
		}
	case 2: // motion
		time, _ := args.Uint32()
		x, _ := args.Fixed()
		y, _ := args.Fixed()
		if p.motionHandler != nil {
			p.motionHandler(time, x, y)
		}
	case 3: // button
		serial, _ := args.Uint32()
		time, _ := args.Uint32()
		button, _ := args.Uint32()
		state, _ := args.Uint32()
		if p.buttonHandler != nil {
			p.buttonHandler(serial, time, button, state)
		}
	case 4: // axis
		time, _ := args.Uint32()
		axis, _ := args.Uint32()
		value, _ := args.Fixed()
		if p.axisHandler != nil {
			p.axisHandler(time, axis, value)
		}
	}
	return nil
}

// Keyboard is the host proxy for wl_keyboard.
type Keyboard struct {
	proxyBase
	keymapHandler    func(format, fd uint32, size uint32)
	enterHandler     func(serial, surfaceName uint32, keys []byte)
	leaveHandler     func(serial, surfaceName uint32)
	keyHandler       func(serial, time, key, state uint32)
	modifiersHandler func(serial, modsDepressed, modsLatched, modsLocked, group uint32)
}

func (k *Keyboard) SetKeymapHandler(h func(format, fd uint32, size uint32))               { k.keymapHandler = h }
func (k *Keyboard) SetEnterHandler(h func(serial, surfaceName uint32, keys []byte))       { k.enterHandler = h }
func (k *Keyboard) SetLeaveHandler(h func(serial, surfaceName uint32))                    { k.leaveHandler = h }
func (k *Keyboard) SetKeyHandler(h func(serial, time, key, state uint32))                 { k.keyHandler = h }
func (k *Keyboard) SetModifiersHandler(h func(serial, depressed, latched, locked, group uint32)) {
	k.modifiersHandler = h
}

func (k *Keyboard) Release() error { return k.destroyRequest(0) }

func (k *Keyboard) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // keymap
		format, _ := args.Uint32()
		fd, err := args.FD()
		size, _ := args.Uint32()
		if err == nil && k.keymapHandler != nil {
			k.keymapHandler(format, uint32(fd), size)
		}
	case 1: // enter
		serial, _ := args.Uint32()
		surface, _ := args.Uint32()
		keys, _ := args.Array()
		if k.enterHandler != nil {
			k.enterHandler(serial, surface, keys)
		}
	case 2: // leave
		serial, _ := args.Uint32()
		surface, _ := args.Uint32()
		if k.leaveHandler != nil {
			k.leaveHandler(serial, surface)
		}
	case 3: // key
		serial, _ := args.Uint32()
		time, _ := args.Uint32()
		key, _ := args.Uint32()
		state, _ := args.Uint32()
		if k.keyHandler != nil {
			k.keyHandler(serial, time, key, state)
		}
	case 4: // modifiers
		serial, _ := args.Uint32()
		depressed, _ := args.Uint32()
		latched, _ := args.Uint32()
		locked, _ := args.Uint32()
		group, _ := args.Uint32()
		if k.modifiersHandler != nil {
			k.modifiersHandler(serial, depressed, latched, locked, group)
		}
	}
	return nil
}
