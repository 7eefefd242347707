// Package sommctx implements the Context entity (spec.md §3 / §9): the
// process-wide state sommelier threads through every subsystem instead
// of reaching for package-level singletons — one Context per guest
// session, passed explicitly, so --parent's per-client forked instances
// (spec.md §6.3) never share state.
package sommctx

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"go.chromium.org/sommelier/internal/clipboard"
	"go.chromium.org/sommelier/internal/config"
	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/logger"
	"go.chromium.org/sommelier/internal/outputs"
	"go.chromium.org/sommelier/internal/proxyfab"
	"go.chromium.org/sommelier/internal/scale"
	"go.chromium.org/sommelier/internal/scheduler"
	"go.chromium.org/sommelier/internal/sommerr"
	"go.chromium.org/sommelier/internal/wire"
)

// Context is every piece of process-wide state one sommelier instance
// needs, bundled so it can be passed explicitly to the subsystems that
// need it rather than held in package globals.
type Context struct {
	Config config.Config

	HostConn     *hostproto.Conn
	HostDisplay  *hostproto.Display
	HostRegistry *hostproto.Registry

	Guest *wire.Listener

	Globals  *proxyfab.Registry
	Outputs  *outputs.Manager
	Surfaces *proxyfab.SurfaceRegistry
	Scale    scale.Context
	Clipboard *clipboard.Bridge

	Loop *scheduler.Loop

	stop         chan struct{}
	sawMainGuest bool

	// hostShm is the one host wl_shm binding every CompositorAdaptor's
	// buffer translation path (internal/surface.HostSink) shares, set
	// once addShmGlobal processes the host's wl_shm global.
	hostShm *hostproto.Shm

	// hostNameToGuestName maps a host wl_registry global name to the
	// guest-facing name this process assigned it in Globals, so a host
	// global_remove can withdraw the right guest-visible entry.
	hostNameToGuestName map[uint32]uint32
}

// New connects to the host compositor, opens the guest-facing server
// socket, and assembles every subsystem's shared state. It does not yet
// start the event loop; call Run for that.
func New(cfg config.Config) (*Context, error) {
	hostConn, err := hostproto.Dial(os.Getenv("XDG_RUNTIME_DIR"), cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("sommctx: connect to host display: %w", err)
	}

	display := hostproto.NewDisplay(hostConn)
	registry, err := display.GetRegistry()
	if err != nil {
		hostConn.Close()
		return nil, fmt.Errorf("sommctx: get host registry: %w", err)
	}

	guest, err := wire.Listen(os.Getenv("XDG_RUNTIME_DIR"), cfg.Socket)
	if err != nil {
		hostConn.Close()
		return nil, fmt.Errorf("sommctx: listen on guest socket: %w", err)
	}

	loop, err := scheduler.New()
	if err != nil {
		guest.Close()
		hostConn.Close()
		return nil, fmt.Errorf("sommctx: create event loop: %w", err)
	}

	scaleCtx := scale.Context{Scale: cfg.Scale, DirectScale: cfg.DirectScale}
	ctx := &Context{
		Config:       cfg,
		HostConn:     hostConn,
		HostDisplay:  display,
		HostRegistry: registry,
		Guest:        guest,
		Globals:      proxyfab.NewRegistry(),
		Outputs:      outputs.NewManager(scaleCtx),
		Surfaces:     proxyfab.NewSurfaceRegistry(),
		Scale:        scaleCtx,
		Clipboard:    clipboard.NewBridge(),
		Loop:         loop,
		stop:         make(chan struct{}),
	}

	registry.SetGlobalHandler(ctx.onHostGlobal)
	registry.SetGlobalRemoveHandler(ctx.onHostGlobalRemove)

	if err := ctx.registerSources(); err != nil {
		ctx.Close()
		return nil, err
	}

	logger.Log.Info("sommelier listening", "socket", guest.Path(), "host-display", cfg.Display)
	return ctx, nil
}

// registerSources wires the host connection fd and the guest listener fd
// into the scheduler, per spec.md §4.8's source list. Per-client fds are
// added as Accept produces them (see acceptGuest).
func (c *Context) registerSources() error {
	hostFD, err := c.hostConnFD()
	if err != nil {
		return err
	}
	if err := c.Loop.Add(&scheduler.Source{
		FD:         hostFD,
		Name:       "host-connection",
		OnReadable: c.dispatchHost,
	}); err != nil {
		return fmt.Errorf("sommctx: register host fd: %w", err)
	}

	guestFD, err := c.Guest.FD()
	if err != nil {
		return fmt.Errorf("sommctx: guest listener fd: %w", err)
	}
	if err := c.Loop.Add(&scheduler.Source{
		FD:         guestFD,
		Name:       "guest-listener",
		OnReadable: c.acceptGuest,
	}); err != nil {
		return fmt.Errorf("sommctx: register guest listener fd: %w", err)
	}
	return nil
}

// hostConnFD extracts the host connection's underlying fd so it can be
// registered with the scheduler the same way every other source is.
// internal/hostproto dials and frames this connection directly on top of
// internal/wire (see that package's doc comment), so the fd is just the
// socket sommelier itself opened, not something recovered from a third
// party client library.
func (c *Context) hostConnFD() (int, error) {
	return c.HostConn.FD()
}

// dispatchHost classifies a host-connection error per spec.md §7: a
// closed/reset socket is ErrHostConnLost (flush and exit 0); anything
// else from the dispatch loop is treated as ErrHostProtocol (fatal,
// abort) since sommelier has no way to resynchronise a host protocol
// stream mid-session.
func (c *Context) dispatchHost() {
	err := c.HostConn.DispatchOne()
	if err == nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		logger.Log.Info("host connection closed", "err", err, "class", sommerr.ErrHostConnLost)
		c.Close()
		return
	}
	logger.Log.Fatal("host connection error", "err", err, "class", sommerr.ErrHostProtocol)
}

// acceptGuest accepts one pending guest client connection, wraps it in
// a wire.Table, and registers its fd with the scheduler so its requests
// dispatch through the same single-threaded loop as everything else.
func (c *Context) acceptGuest() {
	conn, err := c.Guest.Accept()
	if err != nil {
		logger.Log.Warn("guest accept failed", "err", err)
		return
	}
	table := wire.NewTable(conn)
	aux := c.sawMainGuest
	c.sawMainGuest = true
	table.Insert(proxyfab.NewDisplayAdaptor(table, c.Globals, aux))

	fd, err := conn.FD()
	if err != nil {
		logger.Log.Warn("guest client fd unavailable", "err", err)
		conn.Close()
		return
	}
	c.Loop.Add(&scheduler.Source{
		FD:   fd,
		Name: "guest-client",
		OnReadable: func() {
			if err := table.DispatchOne(); err != nil {
				c.Loop.Remove(fd)
				conn.Close()
			}
		},
	})
}

// Run starts the event loop. It returns when Close is called from
// another callback (e.g. a fatal host error) or the process receives a
// shutdown signal registered by the caller.
func (c *Context) Run() error {
	return c.Loop.Run(c.stop)
}

// Close releases every resource New acquired. Safe to call more than
// once.
func (c *Context) Close() error {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	if c.Guest != nil {
		c.Guest.Close()
	}
	if c.HostConn != nil {
		c.HostConn.Close()
	}
	if c.Loop != nil {
		c.Loop.Close()
	}
	return nil
}
