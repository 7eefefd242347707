package surface

import "go.chromium.org/sommelier/internal/scale"

// DamageRect is one pixel-space (guest buffer-local) damage rectangle
// reported on a commit.
type DamageRect struct{ X1, Y1, X2, Y2 int64 }

// HostDamageRect is a DamageRect transformed into host units by
// internal/scale.DamageCoord (spec.md §4.4's damage-transform rule).
type HostDamageRect struct{ X1, Y1, X2, Y2 int64 }

// CommitResult is the set of actions the wiring layer must take in
// response to one guest wl_surface.commit, decided by Surface.Commit.
type CommitResult struct {
	// ShouldAck reports whether a pending configure is satisfied by this
	// commit's size; if so, AckSerial must be ack'd on the surface's
	// xdg_surface before the commit itself is forwarded to the host
	// (spec.md §4.4 rule 1, the commit-ordering invariant).
	ShouldAck bool
	AckSerial uint32

	// Damage is the commit's damage rectangles, already transformed to
	// host units.
	Damage []HostDamageRect

	// ReleaseGuestBufferNow is true when the attached buffer just
	// finished a copy-on-commit translation and its guest-side
	// wl_buffer.release should be emitted immediately, ahead of the
	// host's own release of the translated buffer (spec.md §4.4's
	// release-propagation rule).
	ReleaseGuestBufferNow bool
}

// Surface is one guest wl_surface's buffer-pipeline state: the scaling
// context/override it commits through, and the configure obligation (if
// any) that must be satisfied before a commit is forwarded.
type Surface struct {
	Scale        scale.Context
	SurfaceScale *scale.Surface

	// Configure is nil for surfaces with no outstanding ack obligation
	// (popups, cursor surfaces, subsurfaces) — Commit then never holds
	// the commit back for an ack.
	Configure ConfigureTracker

	// BufferScaleX/Y is the wl_surface.set_buffer_scale (or equivalent
	// fractional-scale) factor applied before the context's guest->host
	// ratio in DamageCoord. Zero means 1 (no buffer-local scaling).
	BufferScaleX, BufferScaleY float64

	// ShapedContent mirrors spec.md §3's Surface.shape-region attribute
	// (populated when --enable-xshape is negotiated); a buffer
	// translation failure clears it per spec.md §7's fallback policy,
	// since the raw shm attach that replaces it carries no shape mask.
	ShapedContent bool
}

// HandleTranslationFailure applies spec.md §7's dmabuf-import-failure
// policy to this surface's pending buffer: fall back to a direct shm
// attach and clear ShapedContent. The returned error
// (sommerr.ErrBufferTranslation) is for the caller's own logging; it is
// never reported to the guest client.
func (s *Surface) HandleTranslationFailure(buf *Buffer) error {
	err := buf.TranslationFailed()
	s.ShapedContent = false
	return err
}

// Commit runs the steps spec.md §4.4 inserts into the guest's commit:
// ack-configure coalescing, damage transform, and copy-on-commit release
// timing. buf may be nil (a commit with no newly attached buffer, e.g. a
// damage-only or attachment-unchanged commit still needs ack-configure
// and damage handling but has nothing to translate or release).
func (s *Surface) Commit(buf *Buffer, width, height int32, damage []DamageRect) CommitResult {
	var res CommitResult

	if s.Configure != nil {
		if serial, ok := s.Configure.CommitMatches(width, height); ok {
			res.ShouldAck = true
			res.AckSerial = serial
		}
	}

	if buf != nil {
		res.ReleaseGuestBufferNow = buf.CompleteCopy()
	}

	bsx, bsy := s.BufferScaleX, s.BufferScaleY
	if bsx == 0 {
		bsx = 1
	}
	if bsy == 0 {
		bsy = 1
	}
	for _, d := range damage {
		x1, y1, x2, y2 := scale.DamageCoord(s.Scale, s.SurfaceScale, bsx, bsy, d.X1, d.Y1, d.X2, d.Y2)
		res.Damage = append(res.Damage, HostDamageRect{x1, y1, x2, y2})
	}

	return res
}
