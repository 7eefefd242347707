package hostproto

import "go.chromium.org/sommelier/internal/wire"

// Viewporter is the host proxy for wp_viewporter, used by the Scaling
// Engine's direct-scale mode (internal/scale.ViewportScale) to resize a
// surface's host-side presentation without touching the guest's buffer
// contents.
type Viewporter struct {
	proxyBase
}

// NewViewporter allocates the local object id; the caller still owes
// registry.Bind(name, "wp_viewporter", version, v).
func NewViewporter(conn *Conn) *Viewporter {
	v := &Viewporter{proxyBase: newProxyBase(conn, "wp_viewporter")}
	v.register(v)
	return v
}

func (v *Viewporter) GetViewport(surface wire.Object) (*Viewport, error) {
	const opGetViewport = 1
	vp := &Viewport{proxyBase: newProxyBase(v.conn, "wp_viewport")}
	w := wire.NewArgWriter()
	w.PutUint32(vp.id)
	w.PutUint32(surface.ObjectID())
	if err := v.request(opGetViewport, w); err != nil {
		return nil, err
	}
	vp.register(vp)
	return vp, nil
}

func (v *Viewporter) Destroy() error { return v.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (v *Viewporter) Release(version uint32) error { return v.Destroy() }

func (v *Viewporter) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// Viewport is one surface's wp_viewport, the host-side application of
// internal/scale's GuestToHostSize-derived destination rectangle.
type Viewport struct {
	proxyBase
}

// SetSource clips to a (possibly fractional, hence wire.Fixed) source
// rectangle in buffer-local coordinates. Sommelier never calls this on
// its own behalf; it only forwards a guest's own wp_viewport.set_source.
func (vp *Viewport) SetSource(x, y, width, height wire.Fixed) error {
	const opSetSource = 1
	w := wire.NewArgWriter()
	w.PutFixed(x)
	w.PutFixed(y)
	w.PutFixed(width)
	w.PutFixed(height)
	return vp.request(opSetSource, w)
}

// SetDestination is the request internal/scale.ViewportScale's (outWidth,
// outHeight) feeds: the logical size this surface should present at on
// the host, independent of its buffer's pixel size.
func (vp *Viewport) SetDestination(width, height int32) error {
	const opSetDestination = 2
	w := wire.NewArgWriter()
	w.PutInt32(width)
	w.PutInt32(height)
	return vp.request(opSetDestination, w)
}

func (vp *Viewport) Destroy() error { return vp.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (vp *Viewport) Release(version uint32) error { return vp.Destroy() }

func (vp *Viewport) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }
