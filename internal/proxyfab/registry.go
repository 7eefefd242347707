package proxyfab

import "sort"

// Global is one entry in the Context-wide registry of bindable interfaces
// (spec.md §3): a host global sommelier has discovered (or a synthetic
// sommelier-only interface, e.g. zcr_text_input_x11_v1) that it is willing
// to advertise to guest clients via wl_registry.global.
type Global struct {
	Name      uint32 // the server-side (guest-facing) global name
	Interface string
	Version   uint32

	// AuxiliaryVisible controls whether this global is advertised to
	// auxiliary guest clients (every connection on the socket besides the
	// main one), per spec.md §4.1's filtering rule: "auxiliary clients see
	// only wl_seat, wl_data_device_manager... plus text-input globals".
	AuxiliaryVisible bool

	// Bind constructs the ProxyPair (or equivalent adaptor state) for one
	// guest bind request. It receives the negotiated version, the
	// server-facing object id the guest allocated for the new resource,
	// and the GuestTable of the connection that issued the bind (globals
	// are shared process-wide, but each bind belongs to one guest client's
	// own object table), or an error if the host side failed.
	Bind func(negotiatedVersion uint32, serverID uint32, guest GuestTable) error
}

// Registry is the Context-wide table of globals, spec.md §3's
// "globals: name -> bindable interface version table".
type Registry struct {
	globals map[uint32]*Global
	nextName uint32
}

func NewRegistry() *Registry {
	return &Registry{globals: make(map[uint32]*Global)}
}

// Add assigns a fresh guest-facing name and stores g, returning the
// assigned name. Sommelier calls this once per host wl_registry.global
// event (core interfaces) and once per synthesized sommelier-only
// interface at startup.
func (r *Registry) Add(g *Global) uint32 {
	r.nextName++
	name := r.nextName
	g.Name = name
	r.globals[name] = g
	return name
}

// Remove withdraws a global, mirroring a host wl_registry.global_remove.
// Any already-bound ProxyPairs are unaffected; only future binds are
// rejected.
func (r *Registry) Remove(name uint32) {
	delete(r.globals, name)
}

func (r *Registry) Lookup(name uint32) (*Global, bool) {
	g, ok := r.globals[name]
	return g, ok
}

// VisibleTo returns the globals a given guest connection should see,
// ordered by name for deterministic wl_registry.global replay. aux
// selects the auxiliary-client filter from spec.md §4.1.
func (r *Registry) VisibleTo(aux bool) []*Global {
	out := make([]*Global, 0, len(r.globals))
	for _, g := range r.globals {
		if aux && !g.AuxiliaryVisible {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Bind negotiates a version and invokes g.Bind, per spec.md §4.1: "on
// bind, the pair's version is min(client_requested, host_advertised,
// sommelier_supported)". sommelierSupported is the highest version this
// adaptor's Go code implements for g.Interface.
func (r *Registry) Bind(name uint32, clientRequested, sommelierSupported, serverID uint32, guest GuestTable) (uint32, error) {
	g, ok := r.Lookup(name)
	if !ok {
		return 0, errUnknownGlobal(name)
	}
	version := NegotiateVersion(clientRequested, g.Version, sommelierSupported)
	return version, g.Bind(version, serverID, guest)
}
