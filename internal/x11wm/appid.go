package x11wm

import "fmt"

// AppIDSources carries every candidate the precedence chain in spec.md
// §4.6 ("Application-id derivation") may draw from. Empty strings/zero
// values mean "not available".
type AppIDSources struct {
	ConfiguredAppID      string // ctx.application_id from config, highest priority
	PropertyValue        string // the cardinal property named ctx.application_id_property_name
	WMClass              string
	WMClientLeader       uint32
	WindowID             uint32
}

// DeriveAppID walks the precedence chain — config override, then the
// configured property name, then WM_CLASS, then WM_CLIENT_LEADER, then
// the window id itself — and formats the chosen suffix as
// org.chromium.guest_os.<vmID>.<suffix>, the string sent to the host via
// zaura_surface.set_application_id.
func DeriveAppID(src AppIDSources, vmID string) string {
	suffix := chooseSuffix(src)
	return fmt.Sprintf("org.chromium.guest_os.%s.%s", vmID, suffix)
}

func chooseSuffix(src AppIDSources) string {
	if src.ConfiguredAppID != "" {
		return src.ConfiguredAppID
	}
	if src.PropertyValue != "" {
		return src.PropertyValue
	}
	if src.WMClass != "" {
		return src.WMClass
	}
	if src.WMClientLeader != 0 {
		return fmt.Sprintf("leader.%d", src.WMClientLeader)
	}
	return fmt.Sprintf("window.%d", src.WindowID)
}
