// Package scale implements the Scaling Engine: the physical/virtual/
// logical coordinate transforms described in spec.md §4.2, ported from
// the rounding and ordering rules in
// _examples/original_source/.tests/borealis/sommelier/sommelier-transform.h.
//
// Three coordinate spaces:
//
//   - Physical: raw pixels on the display device.
//   - Virtual: what the guest sees (physical × the user's --scale, or in
//     direct-scale mode, physical × a per-axis factor derived from output
//     geometry).
//   - Logical: what the host compositor uses to lay out windows.
//
// Context-level state is passed explicitly (never ambient/global), per
// spec.md §9's "pass the context explicitly" re-architecture note.
package scale

import (
	"math"

	"go.chromium.org/sommelier/internal/wire"
)

// Fixed is the shared 24.8 fixed-point wire type, reused from
// internal/wire so pointer coordinates never need conversion between
// package-local fixed-point representations.
type Fixed = wire.Fixed

// Context holds the context-wide scale scalars from spec.md §4.2.
type Context struct {
	// Scale is the single virtual<->logical ratio (the --scale flag),
	// used when DirectScale is false.
	Scale float64
	// DirectScale selects per-axis xdg scales derived from xdg_output
	// instead of the single Scale factor.
	DirectScale bool
	// XdgScaleX/Y is the virtual<->logical ratio inferred from whichever
	// output is "internal", used when DirectScale is true.
	XdgScaleX, XdgScaleY float64
	// StableScaling selects floor (rather than ceil) rounding for
	// host->guest size conversions.
	StableScaling bool
}

// Surface holds the per-surface override scalars from spec.md §4.2: set
// by TryWindowScale when the context-level scale factors do not round-trip
// cleanly for a particular window's size.
type Surface struct {
	HasOwnScale          bool
	XdgScaleX, XdgScaleY float64
	// RoundX/Y force round-to-nearest (instead of truncation) on position
	// conversions, recorded when TryWindowScale found truncation loses a
	// pixel at round-trip.
	RoundX, RoundY bool
}

func (c Context) axisScale(s *Surface, axis int) float64 {
	if s != nil && s.HasOwnScale {
		if axis == 0 {
			return s.XdgScaleX
		}
		return s.XdgScaleY
	}
	if c.DirectScale {
		if axis == 0 {
			return c.XdgScaleX
		}
		return c.XdgScaleY
	}
	return c.Scale
}

const (
	axisX = 0
	axisY = 1
)

func ceilOutward(v float64) int32 { return int32(math.Ceil(v)) }

func floorOutward(v float64) int32 { return int32(math.Floor(v)) }

// sizeGuestToHost converts a virtual-pixel size to a logical size. Always
// rounds outward (ceil): spec.md §4.2 "Guest→host uses the forward ratio
// ... sizes are rounded outward (ceil for guest→host ...)".
func sizeGuestToHost(c Context, s *Surface, w, h int32) (int32, int32) {
	sx, sy := c.axisScale(s, axisX), c.axisScale(s, axisY)
	return ceilOutward(float64(w) * sx), ceilOutward(float64(h) * sy)
}

// sizeHostToGuest converts a logical size to a virtual-pixel size. Rounds
// outward via ceil by default; floor when StableScaling is set, per
// spec.md §4.2 "... floor for host→guest in stable mode".
func sizeHostToGuest(c Context, s *Surface, w, h int32) (int32, int32) {
	sx, sy := c.axisScale(s, axisX), c.axisScale(s, axisY)
	if c.StableScaling {
		return floorOutward(float64(w) / sx), floorOutward(float64(h) / sy)
	}
	return ceilOutward(float64(w) / sx), ceilOutward(float64(h) / sy)
}

func posGuestToHost(c Context, s *Surface, x, y int32) (int32, int32) {
	sx, sy := c.axisScale(s, axisX), c.axisScale(s, axisY)
	return convertPos(float64(x)*sx, s.roundFlag(axisX)), convertPos(float64(y)*sy, s.roundFlag(axisY))
}

func posHostToGuest(c Context, s *Surface, x, y int32) (int32, int32) {
	sx, sy := c.axisScale(s, axisX), c.axisScale(s, axisY)
	return convertPos(float64(x)/sx, s.roundFlag(axisX)), convertPos(float64(y)/sy, s.roundFlag(axisY))
}

func (s *Surface) roundFlag(axis int) bool {
	if s == nil {
		return false
	}
	if axis == axisX {
		return s.RoundX
	}
	return s.RoundY
}

// convertPos truncates toward zero by default, or rounds to nearest when
// round is set (a window-size probe showed truncation loses a pixel at
// round-trip).
func convertPos(v float64, round bool) int32 {
	if round {
		return int32(math.Round(v))
	}
	return int32(math.Trunc(v))
}

// GuestToHost converts a size, position, or arbitrary coordinate pair from
// guest (virtual) to host (logical) integer units.
func GuestToHost(c Context, s *Surface, x, y int32) (int32, int32) {
	return posGuestToHost(c, s, x, y)
}

// HostToGuest converts a coordinate pair from host (logical) to guest
// (virtual) integer units; the reciprocal of GuestToHost.
func HostToGuest(c Context, s *Surface, x, y int32) (int32, int32) {
	return posHostToGuest(c, s, x, y)
}

// GuestToHostFixed is the 24.8 fixed-point variant of GuestToHost, used
// for pointer and other sub-pixel-precision coordinates.
func GuestToHostFixed(c Context, s *Surface, x, y Fixed) (Fixed, Fixed) {
	sx, sy := c.axisScale(s, axisX), c.axisScale(s, axisY)
	return wire.FixedFromFloat64(x.ToFloat64() * sx), wire.FixedFromFloat64(y.ToFloat64() * sy)
}

// HostToGuestFixed is the reciprocal of GuestToHostFixed.
func HostToGuestFixed(c Context, s *Surface, x, y Fixed) (Fixed, Fixed) {
	sx, sy := c.axisScale(s, axisX), c.axisScale(s, axisY)
	return wire.FixedFromFloat64(x.ToFloat64() / sx), wire.FixedFromFloat64(y.ToFloat64() / sy)
}

// GuestToHostSize converts a content size from guest to host units.
func GuestToHostSize(c Context, s *Surface, w, h int32) (int32, int32) {
	return sizeGuestToHost(c, s, w, h)
}

// HostToGuestSize converts a content size from host to guest units.
func HostToGuestSize(c Context, s *Surface, w, h int32) (int32, int32) {
	return sizeHostToGuest(c, s, w, h)
}

// Pointer transforms a pointer coordinate from host to guest space. It is
// one-directional: the guest never originates pointer motion, matching the
// original sl_transform_pointer's one-directional signature exactly rather
// than generalizing to a bidirectional helper.
func Pointer(c Context, s *Surface, x, y Fixed) (Fixed, Fixed) {
	return HostToGuestFixed(c, s, x, y)
}

// OutputDimensions performs the physical->virtual transform used when an
// output's physical pixel size is received from the host: virtual
// dimensions are the context scale times physical, truncated toward zero.
func OutputDimensions(c Context, width, height int32) (int32, int32) {
	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	return int32(math.Trunc(float64(width) * scale)), int32(math.Trunc(float64(height) * scale))
}

// DamageCoord transforms a damage rectangle from pixel (guest buffer)
// coordinates to host units. It applies bufferScaleX/Y × the context's
// guest->host ratio per axis, and outsets the rectangle by one pixel on
// each side before scaling to absorb filtering, per spec.md §4.4.
func DamageCoord(c Context, s *Surface, bufferScaleX, bufferScaleY float64, x1, y1, x2, y2 int64) (int64, int64, int64, int64) {
	sx := c.axisScale(s, axisX) * bufferScaleX
	sy := c.axisScale(s, axisY) * bufferScaleY
	ox1 := float64(x1-1) * sx
	oy1 := float64(y1-1) * sy
	ox2 := float64(x2+1) * sx
	oy2 := float64(y2+1) * sy
	return int64(math.Floor(ox1)), int64(math.Floor(oy1)), int64(math.Ceil(ox2)), int64(math.Ceil(oy2))
}

// ViewportScale decides whether a commit needs a viewport destination set
// and, if so, what it should be, per spec.md §4.2 "Viewport decision": a
// destination equal to the pixel size means host and guest spaces already
// match, so viewport scaling can be turned off (destination -1,-1).
func ViewportScale(c Context, s *Surface, contentsScale float64, width, height int32) (outWidth, outHeight int32, needed bool) {
	lw, lh := sizeGuestToHost(c, s, width, height)
	if contentsScale == 1 && lw == width && lh == height {
		return -1, -1, false
	}
	return lw, lh, true
}

// TryWindowScale implements the window-scale probe from spec.md §4.2: when
// a window's first paired-surface configure arrives, this transforms
// guest->host and back; if they do not match, per-surface xdg_scale_x/y is
// computed from the logical and pixel sizes (as logical/px, see below) and
// round flags are recorded so subsequent
// conversions recover exactly. A no-op outside direct-scale mode, per the
// header comment on sl_transform_try_window_scale.
func TryWindowScale(c Context, s *Surface, widthPx, heightPx int32) {
	if !c.DirectScale {
		return
	}
	logicalW, logicalH := sizeGuestToHost(c, s, widthPx, heightPx)
	backW, backH := sizeHostToGuest(c, s, logicalW, logicalH)
	if backW == widthPx && backH == heightPx {
		return
	}
	s.HasOwnScale = true
	// xdg_scale_x/y is kept in the same guest->host multiplier convention
	// as the context-level scale (axisScale is used as a multiplier in
	// sizeGuestToHost and a divisor in sizeHostToGuest), so it is
	// logical/px here, not px/logical.
	if widthPx != 0 {
		s.XdgScaleX = float64(logicalW) / float64(widthPx)
	}
	if heightPx != 0 {
		s.XdgScaleY = float64(logicalH) / float64(heightPx)
	}
	s.RoundX = backW != widthPx
	s.RoundY = backH != heightPx
}

// ResetSurfaceScale removes any custom scaling factors TryWindowScale set.
func ResetSurfaceScale(s *Surface) {
	s.HasOwnScale = false
	s.XdgScaleX = 0
	s.XdgScaleY = 0
	s.RoundX = false
	s.RoundY = false
}
