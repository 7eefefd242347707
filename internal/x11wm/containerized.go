package x11wm

// IsContainerised decides whether a window qualifies as "containerised"
// (a game running full-screen), per spec.md §4.6: a known Steam game id,
// a normal window type, a process name that doesn't look like a
// launcher/anti-cheat, and permissive-or-unset max dimensions.
func IsContainerised(steamGameID uint64, windowType string, processName string, maxWidth, maxHeight int32) bool {
	if steamGameID == 0 {
		return false
	}
	if windowType != AtomNetWMWindowTypeNormal {
		return false
	}
	if looksLikeLauncherOrAntiCheat(processName) {
		return false
	}
	permissiveMax := maxWidth <= 0 || maxHeight <= 0 || (maxWidth >= 1<<14 && maxHeight >= 1<<14)
	return permissiveMax
}

func looksLikeLauncherOrAntiCheat(processName string) bool {
	switch processName {
	case "steam", "steamwebhelper", "EasyAntiCheat.exe", "BattlEye.exe":
		return true
	default:
		return false
	}
}

// ChooseViewportOverride implements spec.md §4.6's aspect-ratio-preserving
// viewport choice: when the host proposes (hostW, hostH) for a window
// whose X11 client declared (minW, minH)-(maxW, maxH) acceptable, and
// that proposal doesn't fit, the larger of width_ratio/height_ratio picks
// which axis the viewport constrains; the other axis is derived to
// preserve the client's native aspect ratio (nativeW, nativeH).
func ChooseViewportOverride(hostW, hostH, nativeW, nativeH int32) (viewportW, viewportH int32, aspectRatio float64) {
	if nativeW <= 0 || nativeH <= 0 {
		return hostW, hostH, 0
	}
	aspectRatio = float64(nativeW) / float64(nativeH)

	widthRatio := float64(hostW) / float64(nativeW)
	heightRatio := float64(hostH) / float64(nativeH)

	if widthRatio <= heightRatio {
		// Width is the more constraining axis: fix width, derive height.
		viewportW = hostW
		viewportH = int32(float64(hostW) / aspectRatio)
	} else {
		viewportH = hostH
		viewportW = int32(float64(hostH) * aspectRatio)
	}
	return viewportW, viewportH, aspectRatio
}

// ViewportPointerScale returns the factor seatinput.Pointer.
// SetViewportPointerScale should apply so cursor position stays
// registered on the pixel the user sees once ChooseViewportOverride has
// picked a non-1:1 viewport, per spec.md §4.6.
func ViewportPointerScale(viewportW, nativeW int32) float64 {
	if nativeW <= 0 {
		return 1
	}
	return float64(viewportW) / float64(nativeW)
}

// EmulatedRect is the screen-position/size pair stored when
// _XWAYLAND_RANDR_EMU_MONITOR_RECTS applies to a window, per spec.md
// §4.6's screen-position/size emulation rule.
type EmulatedRect struct {
	X, Y, Width, Height int32
}

// MatchEmulatedRect finds the rect (parsed from
// _XWAYLAND_RANDR_EMU_MONITOR_RECTS) whose bounds contain the window's
// current host output, so XWayland's self-reported geometry stays
// consistent with what it already believes about its monitor layout.
func MatchEmulatedRect(rects []EmulatedRect, outputX, outputY, outputW, outputH int32) (EmulatedRect, bool) {
	for _, r := range rects {
		if r.X == outputX && r.Y == outputY && r.Width == outputW && r.Height == outputH {
			return r, true
		}
	}
	return EmulatedRect{}, false
}
