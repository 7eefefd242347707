package hostproto

import "go.chromium.org/sommelier/internal/wire"

// Shm is the host proxy for wl_shm: the factory internal/surface's
// BufferShm translation path (spec.md §4.4 step 2) uses to allocate a
// host-side shared-memory pool sized to match a guest shm buffer it has
// no other way to hand to the host compositor (the guest's shm fd is
// guest-local memory; it is never itself valid in the host's address
// space).
type Shm struct {
	proxyBase
	formatHandler func(format uint32)
}

// NewShm allocates the local object id; the caller still owes
// registry.Bind(name, "wl_shm", version, s).
func NewShm(conn *Conn) *Shm {
	s := &Shm{proxyBase: newProxyBase(conn, "wl_shm")}
	s.register(s)
	return s
}

func (s *Shm) SetFormatHandler(h func(format uint32)) { s.formatHandler = h }

// CreatePool wraps fd (which must already be sized to size bytes, e.g.
// via ftruncate on a memfd) in a host wl_shm_pool.
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	const opCreatePool = 0
	p := &ShmPool{proxyBase: newProxyBase(s.conn, "wl_shm_pool"), size: size}
	w := wire.NewArgWriter()
	w.PutUint32(p.id)
	w.PutFD(fd)
	w.PutInt32(size)
	if err := s.request(opCreatePool, w); err != nil {
		return nil, err
	}
	p.register(p)
	return p, nil
}

func (s *Shm) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == 0 {
		format, _ := args.Uint32()
		if s.formatHandler != nil {
			s.formatHandler(format)
		}
	}
	return nil
}

// wl_shm pixel formats sommelier actually produces when re-encoding a
// guest shm buffer; ARGB8888/XRGB8888 cover every guest format the
// Surface/Buffer Pipeline currently translates (spec.md §4.4's shm path
// does not attempt a format-converting blit, only a byte copy, so guest
// and host formats must already match one of these two).
const (
	ShmFormatARGB8888 uint32 = 0
	ShmFormatXRGB8888 uint32 = 1
)

// ShmPool is wl_shm_pool: the fd-backed allocation arena Buffer windows
// are carved from.
type ShmPool struct {
	proxyBase
	size int32
}

// CreateBuffer carves a wl_buffer view (offset, width, height, stride,
// format) out of the pool, mirroring the guest's own wl_shm_pool.
// create_buffer request one-for-one.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	const opCreateBuffer = 0
	b := &Buffer{proxyBase: newProxyBase(p.conn, "wl_buffer")}
	w := wire.NewArgWriter()
	w.PutUint32(b.id)
	w.PutInt32(offset)
	w.PutInt32(width)
	w.PutInt32(height)
	w.PutInt32(stride)
	w.PutUint32(format)
	if err := p.request(opCreateBuffer, w); err != nil {
		return nil, err
	}
	b.register(b)
	return b, nil
}

// Resize grows the pool (wl_shm_pool.resize) when a guest buffer needs
// more backing storage than any pool sommelier has already allocated for
// this surface.
func (p *ShmPool) Resize(size int32) error {
	const opResize = 2
	w := wire.NewArgWriter()
	w.PutInt32(size)
	if err := p.request(opResize, w); err != nil {
		return err
	}
	p.size = size
	return nil
}

func (p *ShmPool) Size() int32 { return p.size }

func (p *ShmPool) Destroy() error { return p.destroyRequest(1) }

func (p *ShmPool) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// Buffer is the host-side wl_buffer wrapping one carved-out shm region
// (or, for the DRM-PRIME path, a future zwp_linux_dmabuf_v1-imported
// buffer — see internal/surface.Buffer.NeedsStrideFixup). The release
// event is the host telling sommelier the copy made for this commit can
// be reused or freed.
type Buffer struct {
	proxyBase
	releaseHandler func()
}

func (b *Buffer) SetReleaseHandler(h func()) { b.releaseHandler = h }

func (b *Buffer) Destroy() error { return b.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (b *Buffer) Release(version uint32) error { return b.Destroy() }

func (b *Buffer) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == 0 && b.releaseHandler != nil {
		b.releaseHandler()
	}
	return nil
}
