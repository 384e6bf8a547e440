package threadshot

import (
	"fmt"

	"github.com/user/threadshot/pkg/pipeline"
)

// Preset names a bundle of render settings.
type Preset string

const (
	PresetDesktop Preset = "desktop"
	PresetMobile  Preset = "mobile"
)

// PresetConfig returns the render settings of a named preset.
func PresetConfig(p Preset) (pipeline.RenderConfig, error) {
	switch p {
	case "", PresetDesktop:
		return desktopDefaults(), nil
	case PresetMobile:
		return mobileDefaults(), nil
	default:
		return pipeline.RenderConfig{}, fmt.Errorf("unknown preset %q", p)
	}
}

func desktopDefaults() pipeline.RenderConfig {
	return pipeline.RenderConfig{
		ViewportWidth:  pipeline.Int(600),
		ViewportHeight: pipeline.Int(400),
		ColorScheme:    pipeline.String("light"),
	}
}

// mobileDefaults renders a narrow dark page at 3x density.
func mobileDefaults() pipeline.RenderConfig {
	return pipeline.RenderConfig{
		ViewportWidth:     pipeline.Int(500),
		ViewportHeight:    pipeline.Int(400),
		DeviceScaleFactor: pipeline.Float(3),
		IsMobile:          pipeline.Bool(true),
		HasTouch:          pipeline.Bool(true),
		ColorScheme:       pipeline.String("dark"),
	}
}

// ConfigBuilder provides a fluent interface for building a RenderConfig.
type ConfigBuilder struct {
	config pipeline.RenderConfig
}

// NewConfigBuilder creates a ConfigBuilder starting from the desktop preset.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: desktopDefaults()}
}

// NewMobileConfigBuilder creates a ConfigBuilder starting from the mobile preset.
func NewMobileConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: mobileDefaults()}
}

// Build validates and returns the config.
func (b *ConfigBuilder) Build() (pipeline.RenderConfig, error) {
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return pipeline.RenderConfig{}, err
	}
	return cfg, nil
}

// WithViewport sets the layout viewport in CSS pixels.
func (b *ConfigBuilder) WithViewport(width, height int) *ConfigBuilder {
	b.config.ViewportWidth = pipeline.Int(width)
	b.config.ViewportHeight = pipeline.Int(height)
	return b
}

// WithScreen sets the emulated screen size.
func (b *ConfigBuilder) WithScreen(width, height int) *ConfigBuilder {
	b.config.ScreenWidth = pipeline.Int(width)
	b.config.ScreenHeight = pipeline.Int(height)
	return b
}

// WithDeviceScaleFactor sets the pixel density. It only takes effect
// together with mobile emulation.
func (b *ConfigBuilder) WithDeviceScaleFactor(dsf float64) *ConfigBuilder {
	b.config.DeviceScaleFactor = pipeline.Float(dsf)
	return b
}

// WithMobile toggles mobile emulation and touch.
func (b *ConfigBuilder) WithMobile(mobile bool) *ConfigBuilder {
	b.config.IsMobile = pipeline.Bool(mobile)
	b.config.HasTouch = pipeline.Bool(mobile)
	return b
}

// WithColorScheme sets prefers-color-scheme: dark, light, no-preference or null.
func (b *ConfigBuilder) WithColorScheme(scheme string) *ConfigBuilder {
	b.config.ColorScheme = pipeline.String(scheme)
	return b
}

// WithContrast sets prefers-contrast.
func (b *ConfigBuilder) WithContrast(contrast string) *ConfigBuilder {
	b.config.Contrast = pipeline.String(contrast)
	return b
}

// WithForcedColors sets forced-colors.
func (b *ConfigBuilder) WithForcedColors(forced string) *ConfigBuilder {
	b.config.ForcedColors = pipeline.String(forced)
	return b
}

// WithLocale sets the emulated locale, e.g. "ja-JP".
func (b *ConfigBuilder) WithLocale(locale string) *ConfigBuilder {
	b.config.Locale = pipeline.String(locale)
	return b
}

// WithTimezone sets the emulated IANA time zone.
func (b *ConfigBuilder) WithTimezone(tz string) *ConfigBuilder {
	b.config.TimezoneID = pipeline.String(tz)
	return b
}

// Merge applies every set field of overrides.
func (b *ConfigBuilder) Merge(overrides pipeline.RenderConfig) *ConfigBuilder {
	b.config = b.config.Merge(overrides)
	return b
}
