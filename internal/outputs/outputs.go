// Package outputs implements the Output Manager (spec.md §4.3): tracking
// host outputs, recomputing virtual geometry whenever any output changes,
// and keeping outputs in a left-to-right row in virtual space.
//
// Grounded on output_management/output_management.go's head/mode/done
// handler-table shape (itself the teacher's own Go binding for
// zwlr_output_manager_v1) and the output-dimension rules in
// sommelier-transform.h.
package outputs

import (
	"sort"

	"go.chromium.org/sommelier/internal/scale"
)

// Transform mirrors the wl_output transform enum (normal, 90/180/270,
// flipped variants).
type Transform int32

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

func (t Transform) rotated() bool {
	switch t {
	case Transform90, Transform270, TransformFlipped90, TransformFlipped270:
		return true
	default:
		return false
	}
}

// Output is one host wl_output, per spec.md §3.
type Output struct {
	ID uint32

	// Host-announced geometry.
	HostX, HostY       int32
	PhysicalWidthMM    int32
	PhysicalHeightMM   int32
	PixelWidth         int32
	PixelHeight        int32
	Transform          Transform
	Refresh            int32
	HostScale          float64
	AuraDeviceScale    float64
	AuraCurrentScale   float64
	AuraPreferredScale float64
	XdgLogicalWidth    int32
	XdgLogicalHeight   int32
	Internal           bool

	// Derived fields, recomputed by Recompute.
	VirtWidth, VirtHeight               int32
	VirtRotatedWidth, VirtRotatedHeight int32
	VirtX                               int32
	VirtScaleX, VirtScaleY              float64
	XdgScaleX, XdgScaleY                float64

	needsUpdate bool
}

// Manager holds the full set of outputs, per Context.outputs in spec.md §3.
// Invariant 2: outputs are kept sorted by host x; virt_x values form a
// contiguous row starting at 0 in that order.
type Manager struct {
	outputs []*Output
	// X11Mode derives virtual dimensions from Scale (the context scale)
	// instead of the output's aura current×device scale. It does not
	// adjust PhysicalWidthMM/PhysicalHeightMM; those stay as the host
	// announced them.
	X11Mode bool
	Scale   scale.Context
}

func NewManager(scaleCtx scale.Context) *Manager {
	return &Manager{Scale: scaleCtx}
}

// Add inserts a newly-announced output (host wl_registry.global) and
// returns it. Recompute must be called once its attributes are fully
// received (on the output's `done` event).
func (m *Manager) Add(id uint32) *Output {
	o := &Output{ID: id, AuraDeviceScale: 1, AuraCurrentScale: 1, AuraPreferredScale: 1, HostScale: 1}
	if len(m.outputs) == 0 {
		o.Internal = true
	}
	m.outputs = append(m.outputs, o)
	return o
}

// Remove withdraws an output (host wl_registry.global_remove) and reflows
// the remaining row.
func (m *Manager) Remove(id uint32) {
	for i, o := range m.outputs {
		if o.ID == id {
			m.outputs = append(m.outputs[:i], m.outputs[i+1:]...)
			break
		}
	}
	m.updateOutputX()
}

func (m *Manager) Outputs() []*Output {
	return m.outputs
}

func (m *Manager) Lookup(id uint32) (*Output, bool) {
	for _, o := range m.outputs {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Recompute runs steps 1 and 2 of the algorithm from spec.md §4.3 when an
// output's `done` event fires. Step 3 (sending the state to the guest) is
// left to the caller; NeedsUpdate marks the outputs whose virt_x moved.
func (m *Manager) Recompute(o *Output) {
	m.calculateVirtualDimensions(o)
	m.updateOutputX()
}

// calculateVirtualDimensions is step 1: derive virt_width/height from
// physical size and the combined scale, then apply the output transform
// to get virt_rotated_width/height.
func (m *Manager) calculateVirtualDimensions(o *Output) {
	if m.X11Mode {
		o.VirtWidth, o.VirtHeight = scale.OutputDimensions(m.Scale, o.PixelWidth, o.PixelHeight)
	} else {
		combined := o.AuraCurrentScale * o.AuraDeviceScale
		if combined <= 0 {
			combined = 1
		}
		sc := scale.Context{Scale: combined}
		o.VirtWidth, o.VirtHeight = scale.OutputDimensions(sc, o.PixelWidth, o.PixelHeight)
	}

	if o.Transform.rotated() {
		o.VirtRotatedWidth, o.VirtRotatedHeight = o.VirtHeight, o.VirtWidth
	} else {
		o.VirtRotatedWidth, o.VirtRotatedHeight = o.VirtWidth, o.VirtHeight
	}

	if o.PixelWidth != 0 {
		o.VirtScaleX = float64(o.VirtWidth) / float64(o.PixelWidth)
	}
	if o.PixelHeight != 0 {
		o.VirtScaleY = float64(o.VirtHeight) / float64(o.PixelHeight)
	}
	if o.VirtWidth != 0 {
		o.XdgScaleX = float64(o.XdgLogicalWidth) / float64(o.VirtWidth)
	}
	if o.VirtHeight != 0 {
		o.XdgScaleY = float64(o.XdgLogicalHeight) / float64(o.VirtHeight)
	}
}

// updateOutputX is step 2: traverse all outputs in host-x order and assign
// virt_x = sum of preceding virt_rotated_widths. Satisfies invariant 2 and
// testable property 5 (output reflow).
func (m *Manager) updateOutputX() {
	sort.SliceStable(m.outputs, func(i, j int) bool { return m.outputs[i].HostX < m.outputs[j].HostX })

	var x int32
	for _, o := range m.outputs {
		if o.VirtX != x {
			o.needsUpdate = true
		}
		o.VirtX = x
		x += o.VirtRotatedWidth
	}
}

// NeedsUpdate reports whether o's virt_x changed since the last call to
// ConsumeNeedsUpdate, per step 3 of spec.md §4.3 ("send_host_output_state").
func (o *Output) NeedsUpdate() bool { return o.needsUpdate }

// ConsumeNeedsUpdate clears the flag after the caller has sent geometry/
// mode/scale/done to the guest resource.
func (o *Output) ConsumeNeedsUpdate() { o.needsUpdate = false }

// InternalOutput returns the output whose scale factors feed the
// context-level xdg_scale_x/y in direct-scale mode (spec.md §4.2).
func (m *Manager) InternalOutput() (*Output, bool) {
	for _, o := range m.outputs {
		if o.Internal {
			return o, true
		}
	}
	if len(m.outputs) > 0 {
		return m.outputs[0], true
	}
	return nil, false
}
