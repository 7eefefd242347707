//go:build linux

package surface

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"go.chromium.org/sommelier/internal/hostproto"
)

// HostSink is the live wiring the pure Commit logic above hands off to:
// the part of the Surface/Buffer Pipeline (spec.md §4.4) that actually
// calls into the host connection instead of just deciding what to call.
// One HostSink is created per forwarded wl_surface, grounded on the
// paired hostproto.Surface/XdgSurface the Proxy Fabric's adaptor for that
// resource already holds.
type HostSink struct {
	Shm        *hostproto.Shm
	HostSurf   *hostproto.Surface
	XdgSurf    *hostproto.XdgSurface // nil for surfaces with no xdg_surface role

	pool     *hostproto.ShmPool
	poolFD   int
	poolSize int32
}

// NewHostSink wires surf/xdgSurf (xdgSurf may be nil) to shm for buffer
// translation.
func NewHostSink(shm *hostproto.Shm, surf *hostproto.Surface, xdgSurf *hostproto.XdgSurface) *HostSink {
	return &HostSink{Shm: shm, HostSurf: surf, XdgSurf: xdgSurf, poolFD: -1}
}

// Apply drives the actions CommitResult names: ack-configure (before
// forwarding the commit, per spec.md §4.4 rule 1) and damage propagation.
// The caller has already decided buffer translation separately via
// TranslateShm/TranslateStrideFixup, since that decision depends on the
// attached buffer's BufferSource and Apply only sees the commit-level
// result.
func (h *HostSink) Apply(res CommitResult) error {
	if res.ShouldAck {
		if h.XdgSurf == nil {
			return fmt.Errorf("surface: ack-configure requested on a surface with no xdg_surface role")
		}
		if err := h.XdgSurf.AckConfigure(res.AckSerial); err != nil {
			return fmt.Errorf("surface: ack_configure: %w", err)
		}
	}
	for _, d := range res.Damage {
		if err := h.HostSurf.DamageBuffer(int32(d.X1), int32(d.Y1), int32(d.X2-d.X1), int32(d.Y2-d.Y1)); err != nil {
			return fmt.Errorf("surface: damage_buffer: %w", err)
		}
	}
	return nil
}

// TranslateShm implements the substantive half of spec.md §4.4 step 2's
// "shm -> host-dmabuf copy-on-commit": sommelier has no groundable
// DRM/GBM allocator in its dependency set (see DESIGN.md), so instead of
// importing the guest's shm pages as a dmabuf, it re-encodes them into a
// second, host-owned wl_shm pool and hands that to the host compositor —
// the same bytes, a different fd, which is all wl_shm.create_pool's
// contract requires.  guestData is the guest buffer's bytes (already
// mmap'd and read by the guest-facing wl_shm_pool adaptor); width/
// height/stride/format describe it exactly as the guest's own
// wl_shm_pool.create_buffer arguments did.
func (h *HostSink) TranslateShm(guestData []byte, width, height, stride int32, format uint32) (*hostproto.Buffer, error) {
	size := stride * height
	if int32(len(guestData)) < size {
		return nil, fmt.Errorf("surface: shm buffer short: have %d bytes, need %d", len(guestData), size)
	}

	if err := h.ensurePool(size); err != nil {
		return nil, err
	}

	data, err := unix.Mmap(h.poolFD, 0, int(h.poolSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("surface: mmap host pool: %w", err)
	}
	copy(data[:size], guestData[:size])
	if err := unix.Munmap(data); err != nil {
		return nil, fmt.Errorf("surface: munmap host pool: %w", err)
	}

	buf, err := h.pool.CreateBuffer(0, width, height, stride, format)
	if err != nil {
		return nil, fmt.Errorf("surface: create_buffer: %w", err)
	}
	return buf, nil
}

// ensurePool lazily allocates (or grows) the host-owned memfd-backed
// wl_shm_pool this sink copies commits into. One pool per surface is
// reused across commits, resized up as needed, mirroring the way a real
// Wayland client amortises wl_shm_pool allocation rather than creating
// one per frame.
func (h *HostSink) ensurePool(size int32) error {
	if h.pool != nil && h.poolSize >= size {
		return nil
	}
	if h.pool == nil {
		fd, err := unix.MemfdCreate("sommelier-shm", unix.MFD_CLOEXEC)
		if err != nil {
			return fmt.Errorf("surface: memfd_create: %w", err)
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			syscall.Close(fd)
			return fmt.Errorf("surface: ftruncate: %w", err)
		}
		pool, err := h.Shm.CreatePool(fd, size)
		if err != nil {
			syscall.Close(fd)
			return fmt.Errorf("surface: create_pool: %w", err)
		}
		// wl_shm_pool.create_pool is documented to dup the fd it receives
		// via SCM_RIGHTS; sommelier's own copy is only needed for the
		// mmap calls TranslateShm performs afterwards, keyed off poolFD.
		h.poolFD = fd
		h.pool = pool
		h.poolSize = size
		return nil
	}
	if err := unix.Ftruncate(h.poolFD, int64(size)); err != nil {
		return fmt.Errorf("surface: ftruncate (resize): %w", err)
	}
	if err := h.pool.Resize(size); err != nil {
		return fmt.Errorf("surface: resize: %w", err)
	}
	h.poolSize = size
	return nil
}

// Close releases the host pool and its backing memfd.
func (h *HostSink) Close() error {
	var err error
	if h.pool != nil {
		err = h.pool.Destroy()
	}
	if h.poolFD >= 0 {
		syscall.Close(h.poolFD)
		h.poolFD = -1
	}
	return err
}
