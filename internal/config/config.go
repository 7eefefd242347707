// Package config handles sommelier's configuration surface (spec.md
// §6.3): one cobra flag per recognised option, each with a SOMMELIER_*
// environment-variable equivalent via viper, command-line taking
// precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.chromium.org/sommelier/internal/sommerr"
)

// Config mirrors the table in spec.md §6.3.
type Config struct {
	Socket  string  `mapstructure:"socket"`
	Display string  `mapstructure:"display"`
	Scale   float64 `mapstructure:"scale"`

	DirectScale bool  `mapstructure:"direct-scale"`
	DPI         []int `mapstructure:"dpi"`

	X11 X11Config `mapstructure:",squash"`

	Accelerators         string `mapstructure:"accelerators"`
	WindowedAccelerators string `mapstructure:"windowed-accelerators"`

	ApplicationID             string `mapstructure:"application-id"`
	VMIdentifier              string `mapstructure:"vm-identifier"`
	ApplicationIDX11Property  string `mapstructure:"application-id-x11-property"`

	FrameColor     string `mapstructure:"frame-color"`
	DarkFrameColor string `mapstructure:"dark-frame-color"`
	FullscreenMode string `mapstructure:"fullscreen-mode"`

	Features FeatureFlags `mapstructure:",squash"`

	ForceDRMDevice string `mapstructure:"force-drm-device"`
	Glamor         bool   `mapstructure:"glamor"`
	Parent         bool   `mapstructure:"parent"`

	QuirksConfig         string `mapstructure:"quirks-config"`
	PrintEnabledFeatures bool   `mapstructure:"print-enabled-features"`

	Trace TraceConfig `mapstructure:",squash"`
}

// X11Config covers the `X`, `x-display`, `xwayland-*`, `x-auth`,
// `x-font-path` flag group that enables X11 mode and configures the
// Xwayland spawn.
type X11Config struct {
	Enable               bool   `mapstructure:"X"`
	XDisplay             string `mapstructure:"x-display"`
	XwaylandPath         string `mapstructure:"xwayland-path"`
	XwaylandGLDriverPath string `mapstructure:"xwayland-gl-driver-path"`
	XAuth                string `mapstructure:"x-auth"`
	XFontPath            string `mapstructure:"x-font-path"`
}

// FeatureFlags is the set of boolean behaviour toggles spec.md §4
// describes in full and §6.3 merely lists.
type FeatureFlags struct {
	EnableLinuxDmabuf                bool `mapstructure:"enable-linux-dmabuf"`
	EnableXShape                     bool `mapstructure:"enable-xshape"`
	EnableX11MoveWindows             bool `mapstructure:"enable-x11-move-windows"`
	ViewportResize                   bool `mapstructure:"viewport-resize"`
	AllowXwaylandEmulateScreenPosSize bool `mapstructure:"allow-xwayland-emulate-screen-pos-size"`
	IgnoreStatelessToplevelConfigure bool `mapstructure:"ignore-stateless-toplevel-configure"`
	OnlyClientCanExitFullscreen      bool `mapstructure:"only-client-can-exit-fullscreen"`
	StableScaling                    bool `mapstructure:"stable-scaling"`
}

// TraceConfig covers the observability-output flag group.
type TraceConfig struct {
	TraceFilename  string `mapstructure:"trace-filename"`
	TraceSystem    string `mapstructure:"trace-system"`
	TimingFilename string `mapstructure:"timing-filename"`
	StatsSummary   bool   `mapstructure:"stats-summary"`
	StatsLog       string `mapstructure:"stats-log"`
	StatsTimer     int    `mapstructure:"stats-timer"`
}

// Default returns the zero-value config with the few flags spec.md
// names an explicit default for.
func Default() Config {
	return Config{
		Socket:         "wayland-0",
		Scale:          1.0,
		FullscreenMode: "immersive",
	}
}

// BindFlags registers every recognised option on cmd as a flag and
// binds it through viper so SOMMELIER_* environment variables (dashes
// folded to underscores) serve as fallbacks, per spec.md §6.3's
// "environment parity ... command-line takes precedence".
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	def := Default()
	flags := cmd.Flags()

	flags.String("socket", def.Socket, "Name of the Wayland server socket to listen on")
	flags.String("display", def.Display, "Host Wayland display name to connect to")
	flags.Float64("scale", def.Scale, "User-chosen virtual<->logical scale [0.1, 10.0]")
	flags.Bool("direct-scale", false, "Use per-axis xdg scales derived from xdg_output")
	flags.IntSlice("dpi", nil, "Comma-separated list of preferred DPI buckets")

	flags.Bool("X", false, "Enable X11 mode")
	flags.String("x-display", "", "X11 display name")
	flags.String("xwayland-path", "", "Path to the Xwayland binary")
	flags.String("xwayland-gl-driver-path", "", "Path to Xwayland's GL driver")
	flags.String("x-auth", "", "Path to the Xwayland Xauthority file")
	flags.String("x-font-path", "", "X11 font path")

	flags.String("accelerators", "", "Key chords the compositor reserves")
	flags.String("windowed-accelerators", "", "Key chords reserved only for windowed (non-fullscreen) surfaces")

	flags.String("application-id", "", "Override application-id sent to the host")
	flags.String("vm-identifier", "", "Guest VM identifier used in the derived application-id")
	flags.String("application-id-x11-property", "", "X11 property name to read an application-id override from")

	flags.String("frame-color", "", "Hex RGB used with aura_shell frame colours")
	flags.String("dark-frame-color", "", "Hex RGB used with aura_shell frame colours in dark mode")
	flags.String("fullscreen-mode", def.FullscreenMode, "immersive or plain")

	flags.Bool("enable-linux-dmabuf", false, "Advertise zwp_linux_dmabuf_v1")
	flags.Bool("enable-xshape", false, "Enable X11 shape extension support")
	flags.Bool("enable-x11-move-windows", false, "Allow X11 clients to move their own windows")
	flags.Bool("viewport-resize", false, "Resize via wp_viewport instead of xdg_toplevel configure")
	flags.Bool("allow-xwayland-emulate-screen-pos-size", false, "Honour _XWAYLAND_RANDR_EMU_MONITOR_RECTS")
	flags.Bool("ignore-stateless-toplevel-configure", false, "Ignore xdg_toplevel configures carrying no state change")
	flags.Bool("only-client-can-exit-fullscreen", false, "Disallow the host from un-fullscreening a client")
	flags.Bool("stable-scaling", false, "Keep scale stable across output changes instead of live-recomputing")

	flags.String("force-drm-device", "", "Path to a DRM render node (else auto-discover a virtio-gpu)")
	flags.Bool("glamor", false, "Enable hardware acceleration in Xwayland")
	flags.Bool("parent", false, "Act as a launcher that accepts connections and forks per-client sommeliers")

	flags.String("quirks-config", "", "Path to an optional behavioural-quirks config file")
	flags.Bool("print-enabled-features", false, "Print the resolved feature-flag set and exit")

	flags.String("trace-filename", "", "Write a trace to this file")
	flags.String("trace-system", "", "Enable system-level tracing backend")
	flags.String("timing-filename", "", "Write timing samples to this file")
	flags.Bool("stats-summary", false, "Print a stats summary on exit")
	flags.String("stats-log", "", "Write periodic stats to this file")
	flags.Int("stats-timer", 0, "Stats sampling period in seconds (0 disables the timer)")

	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("config: bind flags: %w", err)
	}

	v.SetEnvPrefix("SOMMELIER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

// Load unmarshals v's current flag/env-resolved values into a Config.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Validate enforces the invariants spec.md calls out explicitly: the
// scale range, the fullscreen-mode enum, and the quirks/print-features
// fatal-at-startup combination (spec.md §7: "missing required value
// (e.g. no quirks path when print-enabled-features specified) is fatal
// at startup").
func (c Config) Validate() error {
	if c.Scale < 0.1 || c.Scale > 10.0 {
		return fmt.Errorf("config: scale %v out of range [0.1, 10.0]: %w", c.Scale, sommerr.ErrInvalidConfig)
	}
	switch c.FullscreenMode {
	case "immersive", "plain":
	default:
		return fmt.Errorf("config: fullscreen-mode %q must be immersive or plain: %w", c.FullscreenMode, sommerr.ErrInvalidConfig)
	}
	if c.PrintEnabledFeatures && c.QuirksConfig == "" {
		return fmt.Errorf("config: print-enabled-features requires quirks-config: %w", sommerr.ErrInvalidConfig)
	}
	return nil
}
