package config

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBoundCommand(t *testing.T) (*cobra.Command, *viper.Viper) {
	t.Helper()
	cmd := &cobra.Command{Use: "sommelier"}
	v := viper.New()
	if err := BindFlags(cmd, v); err != nil {
		t.Fatalf("BindFlags() failed: %v", err)
	}
	return cmd, v
}

func TestLoadAppliesDefaultsWithNoFlagsOrEnv(t *testing.T) {
	_, v := newBoundCommand(t)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Socket != "wayland-0" {
		t.Errorf("expected default socket wayland-0, got %q", cfg.Socket)
	}
	if cfg.Scale != 1.0 {
		t.Errorf("expected default scale 1.0, got %v", cfg.Scale)
	}
	if cfg.FullscreenMode != "immersive" {
		t.Errorf("expected default fullscreen-mode immersive, got %q", cfg.FullscreenMode)
	}
}

func TestCommandLineTakesPrecedenceOverEnv(t *testing.T) {
	cmd, v := newBoundCommand(t)

	t.Setenv("SOMMELIER_SOCKET", "wayland-from-env")
	if err := cmd.Flags().Set("socket", "wayland-from-flag"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Socket != "wayland-from-flag" {
		t.Errorf("expected command-line flag to win, got %q", cfg.Socket)
	}
}

func TestEnvironmentParityWhenFlagNotSet(t *testing.T) {
	_, v := newBoundCommand(t)

	t.Setenv("SOMMELIER_DISPLAY", "wayland-1")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Display != "wayland-1" {
		t.Errorf("expected SOMMELIER_DISPLAY to populate display, got %q", cfg.Display)
	}
}

func TestEnvironmentParityUsesUnderscoresForDashedFlags(t *testing.T) {
	_, v := newBoundCommand(t)

	t.Setenv("SOMMELIER_DIRECT_SCALE", "true")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.DirectScale {
		t.Error("expected SOMMELIER_DIRECT_SCALE=true to set DirectScale")
	}
}

func TestValidateRejectsScaleOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Scale = 20
	if err := cfg.Validate(); err == nil {
		t.Error("expected out-of-range scale to fail validation")
	}
}

func TestValidateRejectsUnknownFullscreenMode(t *testing.T) {
	cfg := Default()
	cfg.FullscreenMode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown fullscreen-mode to fail validation")
	}
}

func TestValidateRejectsPrintEnabledFeaturesWithoutQuirksConfig(t *testing.T) {
	cfg := Default()
	cfg.PrintEnabledFeatures = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected print-enabled-features without quirks-config to fail validation")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to validate, got: %v", err)
	}
}
