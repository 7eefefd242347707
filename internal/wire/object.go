package wire

import (
	"fmt"
	"sync"

	"go.chromium.org/sommelier/internal/sommerr"
)

// Object is a server-side (guest-facing) resource: a thing with an id on
// this Conn's object table that can receive requests.
type Object interface {
	ObjectID() uint32
	Interface() string
	// Dispatch handles one incoming request. Implementations translate
	// arguments and invoke the paired host proxy; see internal/proxyfab.
	Dispatch(opcode uint16, args *ArgReader) error
}

// clientIDCeiling is libwayland's boundary between client-allocated and
// server-allocated object ids.
const clientIDCeiling = 0xff000000

// Table is the per-connection object registry: it maps ids to Objects and
// routes incoming requests to them, and hands out server-allocated ids for
// objects this process creates on the guest's behalf (wl_callback,
// wl_data_offer, and similar "the server introduces this to the client"
// objects).
type Table struct {
	conn *Conn

	mu       sync.Mutex
	objects  map[uint32]Object
	nextSrv  uint32
}

func NewTable(conn *Conn) *Table {
	return &Table{
		conn:    conn,
		objects: make(map[uint32]Object),
		nextSrv: clientIDCeiling,
	}
}

// NewClientTable constructs a Table for the client role instead of the
// server role NewTable serves: this process is the one allocating
// object ids, as libwayland's client side does, starting at 2 (id 1 is
// reserved for wl_display on every Wayland connection). internal/hostproto
// uses this for the one connection sommelier holds to the real host
// compositor.
func NewClientTable(conn *Conn) *Table {
	return &Table{
		conn:    conn,
		objects: make(map[uint32]Object),
		nextSrv: 2,
	}
}

func (t *Table) Conn() *Conn { return t.conn }

// Insert registers obj under its own ObjectID, as reported by a client's
// new_id request argument.
func (t *Table) Insert(obj Object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects[obj.ObjectID()] = obj
}

// NewID allocates the next object id this side of the connection owns:
// server-allocated ids above clientIDCeiling for a guest-facing Table, or
// client-allocated ids from 2 upward for the host-facing Table internal/
// hostproto builds on NewClientTable.
func (t *Table) NewID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSrv
	t.nextSrv++
	return id
}

// NewServerID is NewID under its original, server-table-only name; kept
// for callers that only ever see a NewTable-constructed Table.
func (t *Table) NewServerID() uint32 { return t.NewID() }

// Remove unregisters an id; subsequent messages referencing it are
// protocol errors (the caller should have destroyed the object first).
func (t *Table) Remove(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.objects, id)
}

func (t *Table) Lookup(id uint32) (Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.objects[id]
	return obj, ok
}

// DispatchOne reads and handles a single incoming message. It is the unit
// of work internal/scheduler calls when a guest client's fd is readable.
func (t *Table) DispatchOne() error {
	hdr, args, err := t.conn.ReadMessage()
	if err != nil {
		return err
	}
	obj, ok := t.Lookup(hdr.Sender)
	if !ok {
		return fmt.Errorf("%w: request for unknown object %d", sommerr.ErrGuestProtocol, hdr.Sender)
	}
	return obj.Dispatch(hdr.Opcode, args)
}

// SendEvent writes an event from a server object to its guest client.
func (t *Table) SendEvent(sender uint32, opcode uint16, args *ArgWriter) error {
	return t.conn.WriteMessage(sender, opcode, args)
}
