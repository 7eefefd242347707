// Package cmd wires sommelier's command-line surface: a single long-
// running command (spec.md §6.3's flag table), no subcommands — unlike
// the teacher's client/server split, sommelier is one process that is
// either a regular instance or, with --parent, a launcher that forks
// per-client instances of itself.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.chromium.org/sommelier/internal/config"
	"go.chromium.org/sommelier/internal/logger"
	"go.chromium.org/sommelier/internal/sommctx"
)

// Version is set during build.
var Version = "0.1.0-dev"

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "sommelier",
	Short: "A nested Wayland compositor proxy for running a guest Wayland/X11 session inside a host compositor",
	Long: `sommelier proxies a guest Wayland (and optionally X11) session into a
single client connection on a host Wayland compositor, rescaling surfaces,
translating input, and bridging the clipboard between the two sides.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	if err := config.BindFlags(rootCmd, v); err != nil {
		fmt.Fprintf(os.Stderr, "sommelier: %v\n", err)
		os.Exit(1)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		// spec.md §7: invalid configuration warns and continues, except a
		// missing required value, which is fatal at startup. Validate only
		// reports the fatal class, so treat every failure as fatal here.
		return err
	}

	logger.Configure(cfg.Trace)

	if cfg.PrintEnabledFeatures {
		printEnabledFeatures(cfg)
		return nil
	}

	ctx, err := sommctx.New(cfg)
	if err != nil {
		return fmt.Errorf("sommelier: %w", err)
	}
	defer ctx.Close()

	return ctx.Run()
}

func printEnabledFeatures(cfg config.Config) {
	f := cfg.Features
	fmt.Printf("enable-linux-dmabuf: %v\n", f.EnableLinuxDmabuf)
	fmt.Printf("enable-xshape: %v\n", f.EnableXShape)
	fmt.Printf("enable-x11-move-windows: %v\n", f.EnableX11MoveWindows)
	fmt.Printf("viewport-resize: %v\n", f.ViewportResize)
	fmt.Printf("allow-xwayland-emulate-screen-pos-size: %v\n", f.AllowXwaylandEmulateScreenPosSize)
	fmt.Printf("ignore-stateless-toplevel-configure: %v\n", f.IgnoreStatelessToplevelConfigure)
	fmt.Printf("only-client-can-exit-fullscreen: %v\n", f.OnlyClientCanExitFullscreen)
	fmt.Printf("stable-scaling: %v\n", f.StableScaling)
}
