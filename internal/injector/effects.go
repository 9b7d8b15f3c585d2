package injector

import (
	"fmt"
	"strings"

	"github.com/woodfish/woodfish/internal/theme"
)

// Effect is an optional visual layer on top of the main theme.
type Effect string

// Effects.
const (
	EffectGlow   Effect = "glow"
	EffectGlass  Effect = "glass"
	EffectCursor Effect = "cursor"
)

// AllEffects lists every effect in display order.
var AllEffects = []Effect{EffectGlow, EffectGlass, EffectCursor}

// Settings written to the editor's settings.json.
const (
	SettingGlow   = "woodfishTheme.enableGlowEffects"
	SettingGlass  = "woodfishTheme.enableGlassEffect"
	SettingCursor = "woodfishTheme.enableRainbowCursor"
)

// DefaultEffects returns the effect values assumed when settings.json does
// not set them.
func DefaultEffects() map[Effect]bool {
	return map[Effect]bool{
		EffectGlow:   true,
		EffectGlass:  true,
		EffectCursor: false,
	}
}

// ParseEffect parses an effect name. "rainbow-cursor" is accepted for the
// cursor.
func ParseEffect(s string) (Effect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "glow":
		return EffectGlow, nil
	case "glass":
		return EffectGlass, nil
	case "cursor", "rainbow-cursor":
		return EffectCursor, nil
	default:
		return "", fmt.Errorf("unknown effect %q (want glow, glass or cursor)", s)
	}
}

// SettingKey returns the settings.json key holding the effect flag.
func (e Effect) SettingKey() string {
	switch e {
	case EffectGlow:
		return SettingGlow
	case EffectGlass:
		return SettingGlass
	case EffectCursor:
		return SettingCursor
	default:
		return ""
	}
}

// AssetName returns the catalog asset that implements the effect.
func (e Effect) AssetName() string {
	switch e {
	case EffectGlow:
		return theme.AssetGlow
	case EffectGlass:
		return theme.AssetGlass
	case EffectCursor:
		return theme.AssetCursor
	default:
		return ""
	}
}

// String returns the effect name.
func (e Effect) String() string {
	return string(e)
}
