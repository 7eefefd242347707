package hostproto

import "go.chromium.org/sommelier/internal/wire"

// Output is the host-facing wl_output proxy: geometry/mode/scale/done
// events feed internal/outputs.Manager's recompute algorithm, replacing
// the generated go-wayland/wayland/client.Output this package used
// before the host connection moved onto internal/wire (see conn.go).
type Output struct {
	proxyBase
	geometryHandler func(OutputGeometryEvent)
	modeHandler     func(OutputModeEvent)
	scaleHandler    func(factor int32)
	doneHandler     func()
}

// OutputGeometryEvent mirrors wl_output.geometry's arguments.
type OutputGeometryEvent struct {
	X, Y                   int32
	PhysicalWidth          int32
	PhysicalHeight         int32
	Subpixel               int32
	Make, Model            string
	Transform              int32
}

// OutputModeEvent mirrors wl_output.mode's arguments.
type OutputModeEvent struct {
	Flags          uint32
	Width, Height  int32
	Refresh        int32
}

func NewOutput(conn *Conn) *Output {
	o := &Output{proxyBase: newProxyBase(conn, "wl_output")}
	o.register(o)
	return o
}

func (o *Output) SetGeometryHandler(h func(OutputGeometryEvent)) { o.geometryHandler = h }
func (o *Output) SetModeHandler(h func(OutputModeEvent))         { o.modeHandler = h }
func (o *Output) SetScaleHandler(h func(factor int32))           { o.scaleHandler = h }
func (o *Output) SetDoneHandler(h func())                        { o.doneHandler = h }

// Release satisfies internal/proxyfab.HostProxy; wl_output has no
// version-gated release/destroy split, so version is unused.
func (o *Output) Release(version uint32) error { return o.destroyRequest(0) }

func (o *Output) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // geometry
		x, _ := args.Int32()
		y, _ := args.Int32()
		pw, _ := args.Int32()
		ph, _ := args.Int32()
		subpixel, _ := args.Int32()
		make_, _ := args.String()
		model, _ := args.String()
		transform, _ := args.Int32()
		if o.geometryHandler != nil {
			o.geometryHandler(OutputGeometryEvent{x, y, pw, ph, subpixel, make_, model, transform})
		}
	case 1: // mode
		flags, _ := args.Uint32()
		w, _ := args.Int32()
		h, _ := args.Int32()
		refresh, _ := args.Int32()
		if o.modeHandler != nil {
			o.modeHandler(OutputModeEvent{flags, w, h, refresh})
		}
	case 2: // done
		if o.doneHandler != nil {
			o.doneHandler()
		}
	case 3: // scale
		factor, _ := args.Int32()
		if o.scaleHandler != nil {
			o.scaleHandler(factor)
		}
	}
	return nil
}
