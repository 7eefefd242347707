package proxyfab

import (
	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/outputs"
	"go.chromium.org/sommelier/internal/wire"
)

// wl_output event opcodes, per the upstream protocol XML. Sommelier never
// parses protocol XML (spec.md §1 non-goal); it hand-encodes the handful of
// events it forwards, same as the teacher's output_management package
// hand-encodes wlr-output-management requests.
const (
	opOutputGeometry    uint16 = 0
	opOutputMode        uint16 = 1
	opOutputDone        uint16 = 2
	opOutputScale       uint16 = 3
)

const modeCurrent = 0x1

// OutputAdaptor is the wl_output instance of the Proxy Fabric's three-part
// shape from spec.md §4.1, reduced to its event half: a host event
// listener table (registered on the host Output in NewOutputAdaptor) that
// forwards to the guest resource. It has no Dispatch method, so it handles
// no guest request (wl_output.release included), and no destructor is
// wired to it.
type OutputAdaptor struct {
	Pair   *ProxyPair[*hostproto.Output]
	Output *outputs.Output
	events EventWriter
}

// NewOutputAdaptor binds a host wl_output, wires its geometry/mode/scale/
// done events to recompute the shared outputs.Output record, and forwards
// the result to the guest resource serverID once the Output Manager's
// algorithm (internal/outputs) has recomputed virtual geometry.
//
// version is the value NegotiateVersion already produced; sommelier
// currently tracks wl_output up to version 3 (geometry/mode/scale/done, no
// xdg-output merge — that is a separate global in real compositors and is
// out of scope per spec.md's Non-goals on exotic output protocols).
func NewOutputAdaptor(serverID uint32, hostOutput *hostproto.Output, version uint32, mgr *outputs.Manager, out *outputs.Output, events EventWriter) *OutputAdaptor {
	a := &OutputAdaptor{
		Pair:   NewProxyPair[*hostproto.Output](serverID, hostOutput, version),
		Output: out,
		events: events,
	}

	hostOutput.SetGeometryHandler(func(ev hostproto.OutputGeometryEvent) {
		out.HostX = ev.X
		out.HostY = ev.Y
		out.PhysicalWidthMM = ev.PhysicalWidth
		out.PhysicalHeightMM = ev.PhysicalHeight
		out.Transform = outputs.Transform(ev.Transform)
	})
	hostOutput.SetModeHandler(func(ev hostproto.OutputModeEvent) {
		if ev.Flags&modeCurrent == 0 {
			return
		}
		out.PixelWidth = ev.Width
		out.PixelHeight = ev.Height
		out.Refresh = ev.Refresh
	})
	hostOutput.SetScaleHandler(func(factor int32) {
		out.HostScale = float64(factor)
	})
	hostOutput.SetDoneHandler(func() {
		mgr.Recompute(out)
		a.flush()
	})

	return a
}

// flush re-sends the adaptor's current geometry/mode/scale/done sequence to
// the guest resource. Called after every host `done` for this output.
// Re-sending after a sibling output moved Output.VirtX (spec.md §4.3
// step 3) is Refresh's job, and nothing calls Refresh.
func (a *OutputAdaptor) flush() {
	o := a.Output

	geom := wire.NewArgWriter()
	geom.PutInt32(o.VirtX)
	geom.PutInt32(0)
	geom.PutInt32(o.PhysicalWidthMM)
	geom.PutInt32(o.PhysicalHeightMM)
	geom.PutInt32(0) // subpixel: unknown
	geom.PutString("sommelier")
	geom.PutString("virtual")
	geom.PutInt32(int32(o.Transform))
	a.events.SendEvent(a.Pair.ServerID, opOutputGeometry, geom)

	mode := wire.NewArgWriter()
	mode.PutUint32(modeCurrent)
	mode.PutInt32(o.VirtRotatedWidth)
	mode.PutInt32(o.VirtRotatedHeight)
	mode.PutInt32(o.Refresh)
	a.events.SendEvent(a.Pair.ServerID, opOutputMode, mode)

	if a.Pair.Version >= 2 {
		scale := wire.NewArgWriter()
		scale.PutInt32(1)
		a.events.SendEvent(a.Pair.ServerID, opOutputScale, scale)
	}

	done := wire.NewArgWriter()
	a.events.SendEvent(a.Pair.ServerID, opOutputDone, done)

	o.ConsumeNeedsUpdate()
}

// Refresh re-sends state if the Output Manager flagged this output as
// needing an update since the last flush (e.g. a sibling output was added,
// removed, or reflowed).
func (a *OutputAdaptor) Refresh() {
	if a.Output.NeedsUpdate() {
		a.flush()
	}
}
