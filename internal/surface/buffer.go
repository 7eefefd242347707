// Package surface implements the Surface/Buffer Pipeline (spec.md §4.4):
// the two steps Sommelier inserts into the guest's otherwise-unmodified
// double-buffered commit semantics — ack-configure coalescing and buffer
// translation — plus damage-rectangle transform and release propagation.
//
// Commit and the Buffer/ConfigureTracker types are pure commit-ordering
// logic, the same way internal/x11wm and internal/clipboard are: they
// decide what should happen on a commit. HostSink (wiring.go) acts on
// those decisions: it calls hostproto.XdgSurface.AckConfigure and
// DamageBuffer, and copies shm pixels into a host-owned wl_shm pool (no
// host dmabuf is allocated).
package surface

import "go.chromium.org/sommelier/internal/sommerr"

// BufferSource classifies how a guest wl_buffer's contents reach the
// host, per spec.md §4.4's buffer-translation rule.
type BufferSource int

const (
	// BufferHostNative buffers are already host-consumable (a dmabuf the
	// host allocated itself, handed back to the guest) and need neither
	// pixel copy nor stride fixup.
	BufferHostNative BufferSource = iota
	// BufferShm is a guest wl_shm buffer the host cannot consume
	// directly: its pixels are copied into a host-owned wl_shm pool on
	// commit (HostSink.TranslateShm).
	BufferShm
	// BufferDRMPrime is a guest dmabuf (a virtgpu resource) whose
	// host-side stride may differ from the guest's and needs metadata
	// fixup, not a pixel copy.
	BufferDRMPrime
)

// Buffer tracks one guest wl_buffer attached to a commit, and its
// translated host counterpart, long enough to propagate release
// correctly (spec.md §4.4's release-propagation rule).
type Buffer struct {
	GuestID uint32
	Source  BufferSource

	// GuestStride/HostStride are only meaningful for BufferDRMPrime:
	// virtgpu resources may have a host-side stride different from the
	// guest's, and NeedsStrideFixup reports when that metadata needs
	// patching before the host attaches the buffer.
	GuestStride, HostStride int32

	released bool
}

// NewHostNativeBuffer wraps a buffer that needs no translation.
func NewHostNativeBuffer(guestID uint32) *Buffer {
	return &Buffer{GuestID: guestID, Source: BufferHostNative}
}

// NewShmBuffer wraps a guest shm buffer that will be copied into a
// host-owned wl_shm pool on commit.
func NewShmBuffer(guestID uint32) *Buffer {
	return &Buffer{GuestID: guestID, Source: BufferShm}
}

// NewDRMPrimeBuffer wraps a guest dmabuf buffer, recording both strides
// so NeedsStrideFixup can decide whether metadata patching is needed.
func NewDRMPrimeBuffer(guestID uint32, guestStride, hostStride int32) *Buffer {
	return &Buffer{GuestID: guestID, Source: BufferDRMPrime, GuestStride: guestStride, HostStride: hostStride}
}

// NeedsStrideFixup reports whether this DRM-PRIME buffer's host-side
// stride metadata must be patched before the host attaches it, per
// spec.md §4.4 "virtgpu resources may have a host-side stride different
// from the guest stride".
func (b *Buffer) NeedsStrideFixup() bool {
	return b.Source == BufferDRMPrime && b.HostStride != 0 && b.HostStride != b.GuestStride
}

// CompleteCopy marks a BufferShm copy-on-commit translation as finished.
// It returns true exactly once, the moment the guest's wl_buffer.release
// should be emitted — spec.md §4.4: "For copy-on-commit paths, the guest
// buffer is released as soon as the copy completes, not when the host
// releases the dmabuf." Buffers that are not BufferShm never complete a
// copy, so this always returns false for them.
func (b *Buffer) CompleteCopy() bool {
	if b.Source != BufferShm || b.released {
		return false
	}
	b.released = true
	return true
}

// HostRelease records the host's wl_buffer.release event for this
// buffer's translated (or passed-through) host counterpart. It returns
// true exactly once, the moment the guest's wl_buffer.release should be
// forwarded. For a BufferShm buffer whose copy already completed (the
// ordinary case), this returns false: CompleteCopy already released it,
// and the host's own release of the translated buffer carries no further guest-
// visible meaning.
func (b *Buffer) HostRelease() bool {
	if b.released {
		return false
	}
	b.released = true
	return true
}

// Released reports whether the guest-visible release has already fired,
// by either path.
func (b *Buffer) Released() bool { return b.released }

// TranslationFailed applies spec.md §7's dmabuf-import-failure policy:
// the buffer falls back to attaching the guest's shm contents directly
// (no further host dmabuf allocation is attempted for it), and nothing
// is ever reported to the guest client — the returned error is for the
// caller's own logging only.
func (b *Buffer) TranslationFailed() error {
	b.Source = BufferHostNative
	return sommerr.ErrBufferTranslation
}
