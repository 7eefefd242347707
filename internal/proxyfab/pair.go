package proxyfab

import "go.chromium.org/sommelier/internal/wire"

// DestroyListener is invoked when a ProxyPair is destroyed; it is the Go
// replacement for the C wl_listener-based destroy-notification chain
// (spec.md §9 "manual destroy listeners... replace with RAII").
type DestroyListener func()

// HostProxy is satisfied by every host-facing proxy object this module
// talks to; internal/hostproto provides every one of them, core protocol
// and extensions alike, on top of its own proxyBase idiom.
type HostProxy interface {
	// Release destroys the proxy, preferring a `release` request when the
	// negotiated version supports it, falling back to `destroy` otherwise
	// per spec.md §4.1's destructor rule.
	Release(version uint32) error
}

// ProxyPair is one bound interface instance: spec.md §3's
// {server_resource, host_proxy, version, back-pointer, destroy-listener
// list}.
type ProxyPair[H HostProxy] struct {
	Alive

	ServerID uint32
	Host     H
	Version  uint32

	listeners []DestroyListener
}

// NewProxyPair constructs a pair and marks it alive. version must already
// be the negotiated min(client_requested, host_advertised,
// sommelier_supported) — see NegotiateVersion.
func NewProxyPair[H HostProxy](serverID uint32, host H, version uint32) *ProxyPair[H] {
	p := &ProxyPair[H]{ServerID: serverID, Host: host, Version: version}
	p.MarkAlive()
	return p
}

// OnDestroy registers a listener fired exactly once when Destroy runs.
// Invariant 1: "every server resource with a paired host proxy has its
// destroy-listener registered; destroying one destroys the other."
func (p *ProxyPair[H]) OnDestroy(fn DestroyListener) {
	p.listeners = append(p.listeners, fn)
}

// Destroy runs the adaptor's destructor contract from spec.md §4.1: it
// destroys the host proxy, unlinks destroy-listeners, and marks the pair
// dead so any WeakHandle pointing at it resolves to false from here on.
// The caller is responsible for removing the pair from whatever table
// (object Table, parent/child list) it participates in.
func (p *ProxyPair[H]) Destroy() error {
	if !p.isAlive() {
		return nil
	}
	err := p.Host.Release(p.Version)
	for _, l := range p.listeners {
		l()
	}
	p.listeners = nil
	p.MarkDestroyed()
	return err
}

// NegotiateVersion implements spec.md §4.1: "on bind, the pair's version
// is min(client_requested, host_advertised, sommelier_supported)."
func NegotiateVersion(clientRequested, hostAdvertised, sommelierSupported uint32) uint32 {
	v := clientRequested
	if hostAdvertised < v {
		v = hostAdvertised
	}
	if sommelierSupported < v {
		v = sommelierSupported
	}
	return v
}

// EventWriter is the minimal surface ProxyPair adaptors need from
// internal/wire.Table to emit a translated host event to the guest
// resource.
type EventWriter interface {
	SendEvent(sender uint32, opcode uint16, args *wire.ArgWriter) error
}
