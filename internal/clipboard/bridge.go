package clipboard

import (
	"sync"

	"go.chromium.org/sommelier/internal/sommerr"
)

// Bridge holds the one in-flight transfer per direction sommelier
// supports at a time (a single CLIPBOARD selection each way), matching
// spec.md §4.7's "any transfer in flight" cancellation language — there
// is exactly one outstanding transfer to cancel, not a queue.
type Bridge struct {
	mu sync.Mutex

	offers      []GuestOffer // current host->guest TARGETS list
	x11Transfer *Transfer    // host->X11 direction, keyed by requested mime
	hostTransfer *Transfer   // X11->host direction
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// SetOffers replaces the current set of MIME types the Wayland data
// source most recently advertised (spec.md §4.7 guest->host: "allocate
// a wl_data_source, advertise each atom's name as an offer"). Replacing
// the offer list implicitly cancels any transfer from the previous
// selection, since it is no longer valid once ownership changes.
func (b *Bridge) SetOffers(offers []GuestOffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offers = offers
	if b.x11Transfer != nil {
		b.x11Transfer.Cancel()
		b.x11Transfer = nil
	}
}

func (b *Bridge) Offers() []GuestOffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]GuestOffer(nil), b.offers...)
}

// BeginHostToX11 starts (or replaces) the transfer serving an X11
// client's request for mimeType, sourced from the host wl_data_source.
func (b *Bridge) BeginHostToX11(mimeType string) *Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.x11Transfer != nil {
		b.x11Transfer.Cancel()
	}
	b.x11Transfer = NewTransfer(HostToX11, mimeType)
	return b.x11Transfer
}

// BeginX11ToHost starts (or replaces) the transfer serving a host
// wl_data_offer.receive request, sourced from the X11 selection owner
// via XConvertSelection.
func (b *Bridge) BeginX11ToHost(mimeType string) *Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hostTransfer != nil {
		b.hostTransfer.Cancel()
	}
	b.hostTransfer = NewTransfer(X11ToHost, mimeType)
	return b.hostTransfer
}

// CancelAll aborts any in-flight transfers, per spec.md §4.7:
// "destruction of either side's selection cancels any transfer in
// flight (event sources are released, fds closed)". Callers are
// responsible for closing the associated pipe fds and removing them
// from the scheduler; CancelAll only updates transfer state.
func (b *Bridge) CancelAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.x11Transfer != nil {
		b.x11Transfer.Cancel()
		b.x11Transfer = nil
	}
	if b.hostTransfer != nil {
		b.hostTransfer.Cancel()
		b.hostTransfer = nil
	}
}

// OnPipeError cancels whichever transfer uses the erroring pipe and
// returns sommerr.ErrClipboardIO so the caller follows spec.md §7's
// policy for it: cancel the transfer (done here) and send a
// SelectionNotify with property=None (the caller's job, since only it
// holds the X11 connection). A read or write failure on either
// direction's pipe is itself a cancellation trigger.
func (b *Bridge) OnPipeError(dir Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch dir {
	case HostToX11:
		if b.x11Transfer != nil {
			b.x11Transfer.Cancel()
			b.x11Transfer = nil
		}
	case X11ToHost:
		if b.hostTransfer != nil {
			b.hostTransfer.Cancel()
			b.hostTransfer = nil
		}
	}
	return sommerr.ErrClipboardIO
}
