package hostproto

import "go.chromium.org/sommelier/internal/wire"

// Compositor is the host proxy for wl_compositor: the factory sommelier
// uses to create one host wl_surface per guest wl_surface it forwards,
// and the host wl_region instances that back input/opaque-region
// requests and pointer-constraint regions.
type Compositor struct {
	proxyBase
}

// NewCompositor allocates the local object id; the caller still owes
// registry.Bind(name, "wl_compositor", version, c).
func NewCompositor(conn *Conn) *Compositor {
	c := &Compositor{proxyBase: newProxyBase(conn, "wl_compositor")}
	c.register(c)
	return c
}

func (c *Compositor) CreateSurface() (*Surface, error) {
	const opCreateSurface = 0
	s := &Surface{proxyBase: newProxyBase(c.conn, "wl_surface")}
	w := wire.NewArgWriter()
	w.PutUint32(s.id)
	if err := c.request(opCreateSurface, w); err != nil {
		return nil, err
	}
	s.register(s)
	return s, nil
}

func (c *Compositor) CreateRegion() (*Region, error) {
	const opCreateRegion = 1
	r := &Region{proxyBase: newProxyBase(c.conn, "wl_region")}
	w := wire.NewArgWriter()
	w.PutUint32(r.id)
	if err := c.request(opCreateRegion, w); err != nil {
		return nil, err
	}
	r.register(r)
	return r, nil
}

func (c *Compositor) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// Region is wl_region: an accumulation of add/subtract rectangles, used
// here only as the opaque handle pointer-constraint requests and
// input-region commits take, not interpreted locally.
type Region struct {
	proxyBase
}

func (r *Region) Add(x, y, width, height int32) error {
	const opAdd = 1
	w := wire.NewArgWriter()
	w.PutInt32(x)
	w.PutInt32(y)
	w.PutInt32(width)
	w.PutInt32(height)
	return r.request(opAdd, w)
}

func (r *Region) Destroy() error { return r.destroyRequest(0) }

func (r *Region) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// Surface is the host proxy for wl_surface: the single-surface half of
// the Surface/Buffer Pipeline (spec.md §4.4). internal/surface drives
// this through exactly the same attach/damage/commit/frame request
// sequence the guest client used against its own server-side resource.
type Surface struct {
	proxyBase
	enterHandler func(outputName uint32)
	leaveHandler func(outputName uint32)
}

func (s *Surface) SetEnterHandler(h func(outputName uint32)) { s.enterHandler = h }
func (s *Surface) SetLeaveHandler(h func(outputName uint32)) { s.leaveHandler = h }

func (s *Surface) Attach(buffer wire.Object, x, y int32) error {
	const opAttach = 1
	w := wire.NewArgWriter()
	putNullable(w, buffer)
	w.PutInt32(x)
	w.PutInt32(y)
	return s.request(opAttach, w)
}

func (s *Surface) Damage(x, y, width, height int32) error {
	const opDamage = 2
	w := wire.NewArgWriter()
	w.PutInt32(x)
	w.PutInt32(y)
	w.PutInt32(width)
	w.PutInt32(height)
	return s.request(opDamage, w)
}

// Frame requests a one-shot done callback delivered the next time this
// surface's content is presented, forwarding the guest's own frame
// request one-for-one (spec.md §4.4 doesn't special-case frame
// callbacks: sommelier just relays them).
func (s *Surface) Frame() (*Callback, error) {
	const opFrame = 3
	cb := &Callback{proxyBase: newProxyBase(s.conn, "wl_callback")}
	w := wire.NewArgWriter()
	w.PutUint32(cb.id)
	if err := s.request(opFrame, w); err != nil {
		return nil, err
	}
	cb.register(cb)
	return cb, nil
}

func (s *Surface) SetOpaqueRegion(region wire.Object) error {
	const opSetOpaqueRegion = 4
	w := wire.NewArgWriter()
	putNullable(w, region)
	return s.request(opSetOpaqueRegion, w)
}

func (s *Surface) SetInputRegion(region wire.Object) error {
	const opSetInputRegion = 5
	w := wire.NewArgWriter()
	putNullable(w, region)
	return s.request(opSetInputRegion, w)
}

func (s *Surface) Commit() error {
	const opCommit = 6
	return s.request(opCommit, wire.NewArgWriter())
}

func (s *Surface) SetBufferScale(scale int32) error {
	const opSetBufferScale = 8
	w := wire.NewArgWriter()
	w.PutInt32(scale)
	return s.request(opSetBufferScale, w)
}

func (s *Surface) DamageBuffer(x, y, width, height int32) error {
	const opDamageBuffer = 9
	w := wire.NewArgWriter()
	w.PutInt32(x)
	w.PutInt32(y)
	w.PutInt32(width)
	w.PutInt32(height)
	return s.request(opDamageBuffer, w)
}

func (s *Surface) Destroy() error { return s.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (s *Surface) Release(version uint32) error { return s.Destroy() }

func (s *Surface) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // enter
		name, _ := args.Uint32()
		if s.enterHandler != nil {
			s.enterHandler(name)
		}
	case 1: // leave
		name, _ := args.Uint32()
		if s.leaveHandler != nil {
			s.leaveHandler(name)
		}
	}
	return nil
}
