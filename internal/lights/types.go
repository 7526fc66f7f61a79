// Package lights holds the lighting domain model: render modes, the light
// command vocabulary, effect layering, and the strip abstraction that maps
// named regions onto physical LED channels.
package lights

// Mode selects which renderer strategy owns the hardware.
type Mode uint8

const (
	ModeRunning Mode = iota
	ModeTheaterChaseRainbow
	ModeTheaterChase
	ModeRainbow
	ModeLightning
)

func (m Mode) String() string {
	switch m {
	case ModeTheaterChaseRainbow:
		return "theater-chase-rainbow"
	case ModeTheaterChase:
		return "theater-chase"
	case ModeRainbow:
		return "rainbow"
	case ModeLightning:
		return "lightning"
	default:
		return "running"
	}
}

// ParseMode maps a config/wire name to a Mode. Unknown names fall back to
// running, the safe default.
func ParseMode(s string) Mode {
	switch s {
	case "theater-chase-rainbow":
		return ModeTheaterChaseRainbow
	case "theater-chase":
		return ModeTheaterChase
	case "rainbow":
		return ModeRainbow
	case "lightning":
		return ModeLightning
	default:
		return ModeRunning
	}
}

// Command is one lighting instruction on a single logical channel (brake,
// turn, or headlight). NoCommand is the zero value and means "unchanged"
// inside a Commands bundle.
type Command uint8

const (
	NoCommand Command = iota
	LightsOff
	LightsReset
	LightsBrake
	LightsRunning
	LightsHeadlightNormal
	LightsHeadlightBright
	LightsTurnCenter
	LightsTurnLeft
	LightsTurnRight
	LightsTurnHazard
)

func (c Command) String() string {
	switch c {
	case LightsOff:
		return "off"
	case LightsReset:
		return "reset"
	case LightsBrake:
		return "brake"
	case LightsRunning:
		return "running"
	case LightsHeadlightNormal:
		return "headlight-normal"
	case LightsHeadlightBright:
		return "headlight-bright"
	case LightsTurnCenter:
		return "turn-center"
	case LightsTurnLeft:
		return "turn-left"
	case LightsTurnRight:
		return "turn-right"
	case LightsTurnHazard:
		return "turn-hazard"
	default:
		return "none"
	}
}

// Commands is the bundle broadcast to render listeners. Fields left at
// NoCommand carry no change.
type Commands struct {
	Mode      Mode
	Brake     Command
	Turn      Command
	Headlight Command
}

// Effect identifies a pixel animation applied to one region.
type Effect uint8

const (
	EffectOff Effect = iota
	EffectStatic
	EffectBlink
	EffectColorWipe
	EffectBreathe
	EffectFade
	EffectScan
	EffectRainbow
	EffectRainbowCycle
	EffectColorChase
	EffectTheaterChase
	EffectTheaterChaseRainbow
	EffectTwinkle
	EffectSparkle
	EffectAlternate
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Parameters describes one requested effect on a region. Layer is a priority
// ordinal: when several effects target the same region, the highest layer is
// the one rendered.
type Parameters struct {
	Region   string
	Effect   Effect
	Layer    uint8
	First    Color
	Second   Color
	Third    Color
	Duration uint32
}

// Compare orders Parameters by Layer alone. Two values with equal layers
// compare equal no matter what else differs; this is priority placement, not
// value equality, so Parameters must never be deduplicated by Compare.
func (p Parameters) Compare(o Parameters) int {
	switch {
	case p.Layer < o.Layer:
		return -1
	case p.Layer > o.Layer:
		return 1
	default:
		return 0
	}
}

// Less reports whether p sits below o in the layer ordering.
func (p Parameters) Less(o Parameters) bool { return p.Layer < o.Layer }

// RenderStep is the per-renderer animation cursor: current step counter, the
// next wall-clock millisecond the animation should advance, and a scratch
// pixel value. It belongs to exactly one renderer instance and is never
// carried across a renderer swap.
type RenderStep struct {
	Step      uint64
	Next      uint64
	TempPixel uint32
}
