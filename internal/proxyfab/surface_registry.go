package proxyfab

// SurfaceRegistry maps a host wl_surface object id back to the
// SurfaceAdaptor proxying it, so a host-originated event that only names
// its own surface id (wl_pointer.enter/leave, wl_keyboard.enter/leave) can
// be routed to the right guest resource. One instance is shared
// process-wide by Context, independent of which guest connection owns
// which surface.
type SurfaceRegistry struct {
	byHostID map[uint32]*SurfaceAdaptor
}

func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{byHostID: make(map[uint32]*SurfaceAdaptor)}
}

func (r *SurfaceRegistry) put(a *SurfaceAdaptor) {
	r.byHostID[a.Pair.Host.ObjectID()] = a
}

func (r *SurfaceRegistry) remove(a *SurfaceAdaptor) {
	delete(r.byHostID, a.Pair.Host.ObjectID())
}

// Lookup resolves a host wl_surface object id to the SurfaceAdaptor
// proxying it.
func (r *SurfaceRegistry) Lookup(hostSurfaceID uint32) (*SurfaceAdaptor, bool) {
	a, ok := r.byHostID[hostSurfaceID]
	return a, ok
}
