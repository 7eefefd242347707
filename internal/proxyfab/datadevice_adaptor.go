package proxyfab

import (
	"fmt"

	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/wire"
)

// wl_data_device_manager request opcodes.
const (
	opDataDeviceManagerCreateDataSource uint16 = 0
	opDataDeviceManagerGetDataDevice    uint16 = 1
)

// wl_data_source request and event opcodes.
const (
	opDataSourceOffer      uint16 = 0
	opDataSourceDestroy    uint16 = 1
	opDataSourceSetActions uint16 = 2

	opDataSourceEventTarget    uint16 = 0
	opDataSourceEventSend      uint16 = 1
	opDataSourceEventCancelled uint16 = 2
)

// wl_data_offer request and event opcodes.
const (
	opDataOfferAccept     uint16 = 0
	opDataOfferReceive    uint16 = 1
	opDataOfferDestroy     uint16 = 2

	opDataOfferEventOffer uint16 = 0
)

// wl_data_device request and event opcodes.
const (
	opDataDeviceStartDrag     uint16 = 0
	opDataDeviceSetSelection  uint16 = 1
	opDataDeviceRelease       uint16 = 2

	opDataDeviceEventDataOffer uint16 = 0
	opDataDeviceEventSelection uint16 = 5
)

// hostSeatProvider is implemented by the guest-facing wl_seat resource
// (internal/sommctx's seatResource) so get_data_device can resolve its
// wl_seat argument to the one host wl_seat binding this process shares,
// without proxyfab importing sommctx.
type hostSeatProvider interface {
	HostSeat() wire.Object
}

// hostDataSourceProvider lets set_selection resolve a guest wl_data_source
// argument to the host object backing it.
type hostDataSourceProvider interface {
	hostDataSource() *hostproto.DataSource
}

// DataDeviceManagerAdaptor is the wl_data_device_manager global (spec.md
// §4.7): it mints host data sources/devices one-for-one with the guest's
// own requests, giving two Wayland-native guest clients (or a guest client
// and the host compositor itself) a working clipboard without needing
// internal/clipboard's X11 bridging at all — that package only matters
// once an XWayland client is one side of the transfer.
type DataDeviceManagerAdaptor struct {
	id    uint32
	host  *hostproto.DataDeviceManager
	guest GuestTable
}

func NewDataDeviceManagerAdaptor(serverID uint32, host *hostproto.DataDeviceManager, guest GuestTable) *DataDeviceManagerAdaptor {
	return &DataDeviceManagerAdaptor{id: serverID, host: host, guest: guest}
}

func (m *DataDeviceManagerAdaptor) ObjectID() uint32  { return m.id }
func (m *DataDeviceManagerAdaptor) Interface() string { return "wl_data_device_manager" }

func (m *DataDeviceManagerAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opDataDeviceManagerCreateDataSource:
		newID, err := args.Uint32()
		if err != nil {
			return err
		}
		hostSrc, err := m.host.CreateDataSource()
		if err != nil {
			return fmt.Errorf("proxyfab: host create_data_source: %w", err)
		}
		return registerObject(m.guest, newDataSourceAdaptor(newID, hostSrc, m.guest))
	case opDataDeviceManagerGetDataDevice:
		newID, err := args.Uint32()
		if err != nil {
			return err
		}
		seatID, err := args.Uint32()
		if err != nil {
			return err
		}
		sobj, ok := m.guest.Lookup(seatID)
		if !ok {
			return fmt.Errorf("proxyfab: get_data_device references unknown wl_seat %d", seatID)
		}
		provider, ok := sobj.(hostSeatProvider)
		if !ok {
			return fmt.Errorf("proxyfab: get_data_device argument is not a wl_seat")
		}
		hostDev, err := m.host.GetDataDevice(provider.HostSeat())
		if err != nil {
			return fmt.Errorf("proxyfab: host get_data_device: %w", err)
		}
		return registerObject(m.guest, newDataDeviceAdaptor(newID, hostDev, m.guest))
	}
	return nil
}

// dataSourceAdaptor is wl_data_source: the guest's half of advertising a
// selection. Every offer/target/send/cancelled exchange forwards
// verbatim; sommelier itself never needs to inspect MIME types here since
// it is only proxying, not (on this path) bridging to X11 atoms.
type dataSourceAdaptor struct {
	id    uint32
	host  *hostproto.DataSource
	guest GuestTable
}

func newDataSourceAdaptor(serverID uint32, host *hostproto.DataSource, guest GuestTable) *dataSourceAdaptor {
	a := &dataSourceAdaptor{id: serverID, host: host, guest: guest}
	host.SetTargetHandler(func(mimeType string) {
		ev := wire.NewArgWriter()
		ev.PutString(mimeType)
		guest.SendEvent(serverID, opDataSourceEventTarget, ev)
	})
	host.SetSendHandler(func(mimeType string, fd int) {
		ev := wire.NewArgWriter()
		ev.PutString(mimeType)
		ev.PutFD(fd)
		guest.SendEvent(serverID, opDataSourceEventSend, ev)
	})
	host.SetCancelledHandler(func() {
		guest.SendEvent(serverID, opDataSourceEventCancelled, wire.NewArgWriter())
	})
	return a
}

func (a *dataSourceAdaptor) hostDataSource() *hostproto.DataSource { return a.host }

func (a *dataSourceAdaptor) ObjectID() uint32  { return a.id }
func (a *dataSourceAdaptor) Interface() string { return "wl_data_source" }

func (a *dataSourceAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opDataSourceOffer:
		mimeType, err := args.String()
		if err != nil {
			return err
		}
		return a.host.Offer(mimeType)
	case opDataSourceDestroy:
		a.guest.Remove(a.id)
		return a.host.Destroy()
	case opDataSourceSetActions:
		// DnD is an explicit non-goal (spec.md §4.7); set_actions only
		// matters to DnD's action negotiation, so it is accepted and
		// dropped rather than forwarded.
		_, _ = args.Uint32()
	}
	return nil
}

// dataOfferAdaptor is wl_data_offer: a server-allocated guest resource
// (spec.md §4.7 host->guest direction) mirroring one host wl_data_offer's
// announced MIME types.
type dataOfferAdaptor struct {
	id       uint32
	host     *hostproto.DataOffer
	guest    GuestTable
}

// newDataOfferAdaptor mints a fresh server-side guest id for hostOffer,
// registers it, and wires the host's own offer announcements straight
// through — called from a wl_data_device's new-offer handler, before the
// corresponding wl_data_device.data_offer event is sent (libwayland
// requires the object exist before the event naming it is sent).
func newDataOfferAdaptor(guest GuestTable, hostOffer *hostproto.DataOffer) *dataOfferAdaptor {
	id := guest.NewServerID()
	a := &dataOfferAdaptor{id: id, host: hostOffer, guest: guest}
	hostOffer.SetOfferHandler(func(mimeType string) {
		ev := wire.NewArgWriter()
		ev.PutString(mimeType)
		guest.SendEvent(id, opDataOfferEventOffer, ev)
	})
	guest.Insert(a)
	return a
}

func (a *dataOfferAdaptor) ObjectID() uint32  { return a.id }
func (a *dataOfferAdaptor) Interface() string { return "wl_data_offer" }

func (a *dataOfferAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opDataOfferAccept:
		serial, err := args.Uint32()
		if err != nil {
			return err
		}
		mimeType, err := args.String()
		if err != nil {
			return err
		}
		return a.host.Accept(serial, mimeType)
	case opDataOfferReceive:
		mimeType, err := args.String()
		if err != nil {
			return err
		}
		fd, err := args.FD()
		if err != nil {
			return err
		}
		return a.host.Receive(mimeType, fd)
	case opDataOfferDestroy:
		a.guest.Remove(a.id)
		del := wire.NewArgWriter()
		del.PutUint32(a.id)
		a.guest.SendEvent(DisplayObjectID, opDisplayEventDeleteID, del)
		return a.host.Destroy()
	}
	return nil
}

// dataDeviceAdaptor is wl_data_device: the per-seat selection channel.
// Drag-and-drop requests/events (start_drag, enter/motion/leave/drop) are
// accepted or decoded but never forwarded, per spec.md §4.7's explicit
// DnD non-goal — matching hostproto.DataDevice's own Dispatch, which
// already ignores those same host event opcodes.
type dataDeviceAdaptor struct {
	id    uint32
	host  *hostproto.DataDevice
	guest GuestTable

	// offerIDs maps a host wl_data_offer to the guest id newDataOfferAdaptor
	// minted for it, so a later wl_data_device.selection event (which only
	// names the host offer, already resolved by hostproto.DataDevice) can
	// report the matching guest id.
	offerIDs map[*hostproto.DataOffer]uint32
}

func newDataDeviceAdaptor(serverID uint32, host *hostproto.DataDevice, guest GuestTable) *dataDeviceAdaptor {
	a := &dataDeviceAdaptor{id: serverID, host: host, guest: guest, offerIDs: make(map[*hostproto.DataOffer]uint32)}
	host.SetNewOfferHandler(func(offer *hostproto.DataOffer) {
		da := newDataOfferAdaptor(guest, offer)
		a.offerIDs[offer] = da.id
		ev := wire.NewArgWriter()
		ev.PutUint32(da.id)
		guest.SendEvent(serverID, opDataDeviceEventDataOffer, ev)
	})
	host.SetSelectionHandler(func(offer *hostproto.DataOffer) {
		ev := wire.NewArgWriter()
		if offer == nil {
			ev.PutUint32(0)
		} else {
			ev.PutUint32(a.offerIDs[offer])
			delete(a.offerIDs, offer)
		}
		guest.SendEvent(serverID, opDataDeviceEventSelection, ev)
	})
	return a
}

func (a *dataDeviceAdaptor) ObjectID() uint32  { return a.id }
func (a *dataDeviceAdaptor) Interface() string { return "wl_data_device" }

func (a *dataDeviceAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opDataDeviceStartDrag:
		return nil
	case opDataDeviceSetSelection:
		sourceID, err := args.Uint32()
		if err != nil {
			return err
		}
		serial, err := args.Uint32()
		if err != nil {
			return err
		}
		var hostSource wire.Object
		if sourceID != 0 {
			sobj, ok := a.guest.Lookup(sourceID)
			if !ok {
				return fmt.Errorf("proxyfab: set_selection references unknown wl_data_source %d", sourceID)
			}
			provider, ok := sobj.(hostDataSourceProvider)
			if !ok {
				return fmt.Errorf("proxyfab: set_selection argument is not a wl_data_source")
			}
			hostSource = provider.hostDataSource()
		}
		return a.host.SetSelection(hostSource, serial)
	case opDataDeviceRelease:
		a.guest.Remove(a.id)
		return a.host.Release()
	}
	return nil
}
