package sommctx

import (
	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/logger"
	"go.chromium.org/sommelier/internal/proxyfab"
)

// sommelier-supported versions, capped independently of whatever the host
// advertises (NegotiateVersion folds both in): the ceiling of what this
// codebase's adaptors actually implement for each interface.
const (
	supportedCompositorVersion           = 4
	supportedShmVersion                  = 1
	supportedOutputVersion               = 3
	supportedWmBaseVersion               = 2
	supportedPointerConstraintsVersion   = 1
	supportedRelativePointerMgrVersion   = 1
	supportedViewporterVersion           = 1
	supportedDataDeviceManagerVersion    = 3
)

// onHostGlobal is the host wl_registry.global handler installed in New:
// for every core-protocol interface this codebase has a Proxy Fabric
// adaptor for, it binds a fresh host-side proxy immediately (so e.g.
// output geometry starts arriving before any guest client connects) and
// registers a matching guest-facing Global whose Bind closure mints one
// adaptor instance per bind request.
func (c *Context) onHostGlobal(name uint32, iface string, version uint32) {
	switch iface {
	case "wl_compositor":
		c.addCompositorGlobal(name, version)
	case "wl_shm":
		c.addShmGlobal(name, version)
	case "wl_output":
		c.addOutputGlobal(name, version)
	case "xdg_wm_base":
		c.addWmBaseGlobal(name, version)
	case "wl_seat":
		c.addSeatGlobal(name, version)
	case "zwp_pointer_constraints_v1":
		c.addPointerConstraintsGlobal(name, version)
	case "zwp_relative_pointer_manager_v1":
		c.addRelativePointerManagerGlobal(name, version)
	case "wp_viewporter":
		c.addViewporterGlobal(name, version)
	case "wl_data_device_manager":
		c.addDataDeviceManagerGlobal(name, version)
	default:
		logger.Log.Debug("host global not forwarded", "interface", iface, "name", name)
	}
}

// onHostGlobalRemove mirrors a host wl_registry.global_remove into this
// process's own Registry, withdrawing the matching guest-visible Global
// (spec.md §4.1). Any already-bound ProxyPairs are unaffected.
func (c *Context) onHostGlobalRemove(hostName uint32) {
	name, ok := c.hostNameToGuestName[hostName]
	if !ok {
		return
	}
	c.Globals.Remove(name)
	delete(c.hostNameToGuestName, hostName)
	if out, ok := c.Outputs.Lookup(hostName); ok {
		c.Outputs.Remove(out.ID)
	}
}

func (c *Context) addCompositorGlobal(hostName, version uint32) {
	if version > supportedCompositorVersion {
		version = supportedCompositorVersion
	}
	hostComp := hostproto.NewCompositor(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "wl_compositor", version, hostComp); err != nil {
		logger.Log.Error("bind host wl_compositor", "err", err)
		return
	}
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "wl_compositor",
		Version:   version,
		Bind: func(negotiated, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewCompositorAdaptor(serverID, hostComp, c.hostShm, guest, c.Surfaces))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

func (c *Context) addShmGlobal(hostName, version uint32) {
	if version > supportedShmVersion {
		version = supportedShmVersion
	}
	hostShm := hostproto.NewShm(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "wl_shm", version, hostShm); err != nil {
		logger.Log.Error("bind host wl_shm", "err", err)
		return
	}
	c.hostShm = hostShm
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "wl_shm",
		Version:   version,
		Bind: func(negotiated, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewShmAdaptor(serverID, guest))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

func (c *Context) addWmBaseGlobal(hostName, version uint32) {
	if version > supportedWmBaseVersion {
		version = supportedWmBaseVersion
	}
	hostBase := hostproto.NewXdgWmBase(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "xdg_wm_base", version, hostBase); err != nil {
		logger.Log.Error("bind host xdg_wm_base", "err", err)
		return
	}
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "xdg_wm_base",
		Version:   version,
		Bind: func(negotiated, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewWmBaseAdaptor(serverID, hostBase, guest))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

// addOutputGlobal binds the host wl_output immediately so internal/
// outputs.Manager starts tracking its geometry right away (spec.md §4.3),
// independent of whether any guest client ever binds the corresponding
// guest-facing global.
func (c *Context) addOutputGlobal(hostName, version uint32) {
	if version > supportedOutputVersion {
		version = supportedOutputVersion
	}
	hostOutput := hostproto.NewOutput(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "wl_output", version, hostOutput); err != nil {
		logger.Log.Error("bind host wl_output", "err", err)
		return
	}
	out := c.Outputs.Add(hostName)

	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "wl_output",
		Version:   version,
		Bind: func(negotiated, serverID uint32, guest proxyfab.GuestTable) error {
			proxyfab.NewOutputAdaptor(serverID, hostOutput, negotiated, c.Outputs, out, guest)
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

// addPointerConstraintsGlobal binds the host zwp_pointer_constraints_v1
// once and registers a matching guest global: every guest bind gets a
// fresh proxyfab.PointerConstraintsManagerAdaptor instance sharing the one host manager binding,
// the same pattern as wl_compositor/xdg_wm_base.
func (c *Context) addPointerConstraintsGlobal(hostName, version uint32) {
	if version > supportedPointerConstraintsVersion {
		version = supportedPointerConstraintsVersion
	}
	hostMgr := hostproto.NewPointerConstraintsManager(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "zwp_pointer_constraints_v1", version, hostMgr); err != nil {
		logger.Log.Error("bind host zwp_pointer_constraints_v1", "err", err)
		return
	}
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "zwp_pointer_constraints_v1",
		Version:   version,
		Bind: func(_ uint32, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewPointerConstraintsManagerAdaptor(serverID, hostMgr, guest))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

func (c *Context) addRelativePointerManagerGlobal(hostName, version uint32) {
	if version > supportedRelativePointerMgrVersion {
		version = supportedRelativePointerMgrVersion
	}
	hostMgr := hostproto.NewRelativePointerManager(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "zwp_relative_pointer_manager_v1", version, hostMgr); err != nil {
		logger.Log.Error("bind host zwp_relative_pointer_manager_v1", "err", err)
		return
	}
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "zwp_relative_pointer_manager_v1",
		Version:   version,
		Bind: func(_ uint32, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewRelativePointerManagerAdaptor(serverID, hostMgr, guest))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

// addViewporterGlobal binds the host wp_viewporter immediately so the
// Scaling Engine's direct-scale path (internal/scale.ViewportScale,
// wired in SurfaceAdaptor.commit) has a manager ready before any guest
// client ever binds the guest-facing global itself.
func (c *Context) addViewporterGlobal(hostName, version uint32) {
	if version > supportedViewporterVersion {
		version = supportedViewporterVersion
	}
	hostViewporter := hostproto.NewViewporter(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "wp_viewporter", version, hostViewporter); err != nil {
		logger.Log.Error("bind host wp_viewporter", "err", err)
		return
	}
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "wp_viewporter",
		Version:   version,
		Bind: func(_ uint32, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewViewporterAdaptor(serverID, hostViewporter, guest))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

// addDataDeviceManagerGlobal binds the host wl_data_device_manager so the
// Clipboard Bridge's Wayland-native path (spec.md §4.7) works for two
// guest clients, or a guest client and the host, without needing
// internal/clipboard's X11 atom bridging at all.
func (c *Context) addDataDeviceManagerGlobal(hostName, version uint32) {
	if version > supportedDataDeviceManagerVersion {
		version = supportedDataDeviceManagerVersion
	}
	hostMgr := hostproto.NewDataDeviceManager(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "wl_data_device_manager", version, hostMgr); err != nil {
		logger.Log.Error("bind host wl_data_device_manager", "err", err)
		return
	}
	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "wl_data_device_manager",
		Version:   version,
		Bind: func(_ uint32, serverID uint32, guest proxyfab.GuestTable) error {
			guest.Insert(proxyfab.NewDataDeviceManagerAdaptor(serverID, hostMgr, guest))
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

func (c *Context) trackHostName(hostName, guestName uint32) {
	if c.hostNameToGuestName == nil {
		c.hostNameToGuestName = make(map[uint32]uint32)
	}
	c.hostNameToGuestName[hostName] = guestName
}
