package proxyfab

import "go.chromium.org/sommelier/internal/wire"

// Guest-facing wl_display is always object id 1, the one fixed point
// every Wayland connection starts from (spec.md §4.1's bootstrap rule).
const DisplayObjectID uint32 = 1

// wl_display request/event opcodes.
const (
	opDisplaySync        uint16 = 0
	opDisplayGetRegistry  uint16 = 1

	opDisplayEventError    uint16 = 0
	opDisplayEventDeleteID uint16 = 1
)

// wl_registry request/event opcodes.
const (
	opRegistryBind uint16 = 0

	opRegistryEventGlobal       uint16 = 0
	opRegistryEventGlobalRemove uint16 = 1
)

// DisplayAdaptor is the guest-facing wl_display object every connection
// gets inserted at id 1 (spec.md §4.1): it answers sync with a one-shot
// callback and get_registry by handing back a RegistryAdaptor that
// replays this process's current Global table.
type DisplayAdaptor struct {
	guest     GuestTable
	globals   *Registry
	auxiliary bool
}

// NewDisplayAdaptor constructs the object acceptGuest inserts as id 1 for
// a freshly accepted connection. auxiliary selects the auxiliary-client
// global-visibility filter from spec.md §4.1 (true for every connection
// on the socket besides the first).
func NewDisplayAdaptor(guest GuestTable, globals *Registry, auxiliary bool) *DisplayAdaptor {
	return &DisplayAdaptor{guest: guest, globals: globals, auxiliary: auxiliary}
}

func (d *DisplayAdaptor) ObjectID() uint32  { return DisplayObjectID }
func (d *DisplayAdaptor) Interface() string { return "wl_display" }

func (d *DisplayAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opDisplaySync:
		cbID, err := args.Uint32()
		if err != nil {
			return err
		}
		cb := &CallbackAdaptor{id: cbID, guest: d.guest}
		registerObject(d.guest, cb)
		cb.fire(0)
		return nil
	case opDisplayGetRegistry:
		regID, err := args.Uint32()
		if err != nil {
			return err
		}
		reg := NewRegistryAdaptor(regID, d.guest, d.globals, d.auxiliary)
		return registerObject(d.guest, reg)
	}
	return nil
}

// SendError reports a fatal protocol error on objectID back to the guest,
// per wl_display.error; the connection is expected to be torn down right
// after (spec.md §7's ErrGuestProtocol handling).
func (d *DisplayAdaptor) SendError(objectID, code uint32, message string) {
	ev := wire.NewArgWriter()
	ev.PutUint32(objectID)
	ev.PutUint32(code)
	ev.PutString(message)
	d.guest.SendEvent(DisplayObjectID, opDisplayEventError, ev)
}

// RegistryAdaptor is the guest-facing wl_registry: on construction it
// replays every Global currently visible to this connection (aux-filtered
// per spec.md §4.1), and turns bind requests into Registry.Bind calls
// against the matching Global's own Bind closure. Globals added to or
// removed from the Registry after construction are not announced: it
// sends no later global or global_remove event.
type RegistryAdaptor struct {
	id        uint32
	guest     GuestTable
	globals   *Registry
	auxiliary bool
}

// NewRegistryAdaptor binds serverID and immediately sends one `global`
// event per currently-known Global.
func NewRegistryAdaptor(serverID uint32, guest GuestTable, globals *Registry, auxiliary bool) *RegistryAdaptor {
	r := &RegistryAdaptor{id: serverID, guest: guest, globals: globals, auxiliary: auxiliary}
	for _, g := range globals.VisibleTo(auxiliary) {
		r.announce(g)
	}
	return r
}

func (r *RegistryAdaptor) announce(g *Global) {
	ev := wire.NewArgWriter()
	ev.PutUint32(g.Name)
	ev.PutString(g.Interface)
	ev.PutUint32(g.Version)
	r.guest.SendEvent(r.id, opRegistryEventGlobal, ev)
}

// Remove sends a global_remove for name, mirroring the host withdrawing a
// global sommelier had already advertised to this connection.
func (r *RegistryAdaptor) Remove(name uint32) {
	ev := wire.NewArgWriter()
	ev.PutUint32(name)
	r.guest.SendEvent(r.id, opRegistryEventGlobalRemove, ev)
}

func (r *RegistryAdaptor) ObjectID() uint32  { return r.id }
func (r *RegistryAdaptor) Interface() string { return "wl_registry" }

func (r *RegistryAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode != opRegistryBind {
		return nil
	}
	name, err := args.Uint32()
	if err != nil {
		return err
	}
	_, err = args.String() // interface, re-derived from the Global itself
	if err != nil {
		return err
	}
	version, err := args.Uint32()
	if err != nil {
		return err
	}
	newID, err := args.Uint32()
	if err != nil {
		return err
	}
	g, ok := r.globals.Lookup(name)
	if !ok {
		return errUnknownGlobal(name)
	}
	// g.Version is already the version this adaptor implementation caps
	// out at (set when the Global was Add-ed); Registry.Bind folds in the
	// guest's own requested version per spec.md §4.1's three-way min.
	_, err = r.globals.Bind(name, version, g.Version, newID, r.guest)
	return err
}
