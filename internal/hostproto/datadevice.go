package hostproto

import "go.chromium.org/sommelier/internal/wire"

// DataDeviceManager is the host proxy for wl_data_device_manager, the
// factory the Clipboard Bridge (spec.md §4.7) uses both to mirror a guest
// selection onto the host (CreateSource) and to receive the host's
// clipboard owner on this seat (GetDataDevice).
type DataDeviceManager struct {
	proxyBase
}

// NewDataDeviceManager allocates the local object id; the caller still
// owes registry.Bind(name, "wl_data_device_manager", version, m).
func NewDataDeviceManager(conn *Conn) *DataDeviceManager {
	m := &DataDeviceManager{proxyBase: newProxyBase(conn, "wl_data_device_manager")}
	m.register(m)
	return m
}

func (m *DataDeviceManager) CreateDataSource() (*DataSource, error) {
	const opCreateDataSource = 0
	s := &DataSource{proxyBase: newProxyBase(m.conn, "wl_data_source")}
	w := wire.NewArgWriter()
	w.PutUint32(s.id)
	if err := m.request(opCreateDataSource, w); err != nil {
		return nil, err
	}
	s.register(s)
	return s, nil
}

func (m *DataDeviceManager) GetDataDevice(seat wire.Object) (*DataDevice, error) {
	const opGetDataDevice = 1
	d := &DataDevice{proxyBase: newProxyBase(m.conn, "wl_data_device")}
	w := wire.NewArgWriter()
	w.PutUint32(d.id)
	w.PutUint32(seat.ObjectID())
	if err := m.request(opGetDataDevice, w); err != nil {
		return nil, err
	}
	d.register(d)
	return d, nil
}

func (m *DataDeviceManager) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// DataSource is wl_data_source: the host-visible handle sommelier creates
// when a guest's X11 selection owner (internal/clipboard) needs to
// advertise itself as the host clipboard owner too.
type DataSource struct {
	proxyBase
	targetHandler     func(mimeType string)
	sendHandler       func(mimeType string, fd int)
	cancelledHandler  func()
	dndDropHandler    func()
	dndFinishedHandler func()
	actionHandler     func(dndAction uint32)
}

func (s *DataSource) SetTargetHandler(h func(mimeType string))       { s.targetHandler = h }
func (s *DataSource) SetSendHandler(h func(mimeType string, fd int)) { s.sendHandler = h }
func (s *DataSource) SetCancelledHandler(h func())                   { s.cancelledHandler = h }

// Offer advertises one MIME type this selection can be converted to,
// mirroring each TARGETS atom internal/clipboard resolved from the X11
// selection owner.
func (s *DataSource) Offer(mimeType string) error {
	const opOffer = 0
	w := wire.NewArgWriter()
	w.PutString(mimeType)
	return s.request(opOffer, w)
}

func (s *DataSource) Destroy() error { return s.destroyRequest(1) }

// Release satisfies internal/proxyfab.HostProxy.
func (s *DataSource) Release(version uint32) error { return s.Destroy() }

func (s *DataSource) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // target
		mimeType, _ := args.String()
		if s.targetHandler != nil {
			s.targetHandler(mimeType)
		}
	case 1: // send
		mimeType, _ := args.String()
		fd, err := args.FD()
		if err == nil && s.sendHandler != nil {
			s.sendHandler(mimeType, fd)
		}
	case 2: // cancelled
		if s.cancelledHandler != nil {
			s.cancelledHandler()
		}
	case 3: // dnd_drop_performed
		if s.dndDropHandler != nil {
			s.dndDropHandler()
		}
	case 4: // dnd_finished
		if s.dndFinishedHandler != nil {
			s.dndFinishedHandler()
		}
	case 5: // action
		action, _ := args.Uint32()
		if s.actionHandler != nil {
			s.actionHandler(action)
		}
	}
	return nil
}

// DataOffer is wl_data_offer: the host's side of an incoming selection,
// which internal/clipboard mirrors back out as an X11 SelectionNotify
// once it has read the chosen MIME type's bytes off the pipe Receive
// opens.
type DataOffer struct {
	proxyBase
	offerHandler func(mimeType string)
}

func (o *DataOffer) SetOfferHandler(h func(mimeType string)) { o.offerHandler = h }

// Accept matches a target MIME type against this offer, mimeType == ""
// withdraws any previous accept (per wl_data_offer.accept's nullable
// semantics).
func (o *DataOffer) Accept(serial uint32, mimeType string) error {
	const opAccept = 0
	w := wire.NewArgWriter()
	w.PutUint32(serial)
	w.PutString(mimeType)
	return o.request(opAccept, w)
}

// Receive asks the host to start writing mimeType's bytes into fd; the
// caller owns fd and must close its write end before reading, matching
// the INCR-capable streaming path spec.md §4.7 scenario S6 requires for
// large (200 KiB+) selections.
func (o *DataOffer) Receive(mimeType string, fd int) error {
	const opReceive = 1
	w := wire.NewArgWriter()
	w.PutString(mimeType)
	w.PutFD(fd)
	return o.request(opReceive, w)
}

func (o *DataOffer) Destroy() error { return o.destroyRequest(2) }

// Release satisfies internal/proxyfab.HostProxy.
func (o *DataOffer) Release(version uint32) error { return o.Destroy() }

func (o *DataOffer) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == 0 { // offer
		mimeType, _ := args.String()
		if o.offerHandler != nil {
			o.offerHandler(mimeType)
		}
	}
	return nil
}

// DataDevice is wl_data_device: the per-seat clipboard/drag-and-drop
// channel. Sommelier only uses the selection half (spec.md §4.7 is
// explicit that drag-and-drop is a Non-goal), so enter/motion/drop are
// decoded but otherwise ignored.
type DataDevice struct {
	proxyBase
	selectionHandler func(offer *DataOffer)
	newOfferHandler  func(offer *DataOffer)
	offers           map[uint32]*DataOffer
}

func (d *DataDevice) SetSelectionHandler(h func(offer *DataOffer)) { d.selectionHandler = h }

// SetNewOfferHandler fires the moment a host data_offer event mints a
// fresh wl_data_offer, before any MIME types have been announced on it
// (those follow as individual DataOffer.offer events) — the proxyfab
// adaptor uses this to mint a matching guest-facing wl_data_offer and
// relay its announcements as they arrive.
func (d *DataDevice) SetNewOfferHandler(h func(offer *DataOffer)) { d.newOfferHandler = h }

// SetSelection installs source (or nil to clear) as the host clipboard
// owner, the host-facing half of the X11 SelectionNotify sommelier
// synthesizes as the new owner.
func (d *DataDevice) SetSelection(source wire.Object, serial uint32) error {
	const opSetSelection = 1
	w := wire.NewArgWriter()
	putNullable(w, source)
	w.PutUint32(serial)
	return d.request(opSetSelection, w)
}

func (d *DataDevice) Release() error { return d.destroyRequest(2) }

func (d *DataDevice) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // data_offer: announces a new wl_data_offer, id supplied by host
		id, _ := args.Uint32()
		offer := &DataOffer{proxyBase: proxyBase{conn: d.conn, id: id, iface: "wl_data_offer"}}
		offer.register(offer)
		if d.offers == nil {
			d.offers = make(map[uint32]*DataOffer)
		}
		d.offers[id] = offer
		if d.newOfferHandler != nil {
			d.newOfferHandler(offer)
		}
	case 5: // selection
		id, _ := args.Uint32()
		var offer *DataOffer
		if id != 0 {
			offer = d.offers[id]
		}
		if d.selectionHandler != nil {
			d.selectionHandler(offer)
		}
	}
	return nil
}
