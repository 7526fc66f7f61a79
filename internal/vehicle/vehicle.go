// Package vehicle models the physical state of the board as reported by the
// motion stack: longitudinal acceleration class, turn signal, and orientation.
package vehicle

// The zero value of each classification is "unknown": the control core's
// initial snapshot matches no real classification, so the first sample always
// registers as a change, while orientation defaults to TopSideUp so a level
// board does not trigger a spurious lights-off on startup.

type AccelerationState uint8

const (
	AccelerationUnknown AccelerationState = iota
	Neutral
	Braking
)

func (a AccelerationState) String() string {
	switch a {
	case Braking:
		return "braking"
	case Neutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// ParseAcceleration maps a wire name back to a classification. Unrecognized
// names parse as unknown.
func ParseAcceleration(s string) AccelerationState {
	switch s {
	case "braking":
		return Braking
	case "neutral":
		return Neutral
	default:
		return AccelerationUnknown
	}
}

type TurnState uint8

const (
	TurnUnknown TurnState = iota
	Center
	Left
	Right
	Hazard
)

func (t TurnState) String() string {
	switch t {
	case Center:
		return "center"
	case Left:
		return "left"
	case Right:
		return "right"
	case Hazard:
		return "hazard"
	default:
		return "unknown"
	}
}

func ParseTurn(s string) TurnState {
	switch s {
	case "center":
		return Center
	case "left":
		return Left
	case "right":
		return Right
	case "hazard":
		return Hazard
	default:
		return TurnUnknown
	}
}

// Orientation is which side of the board faces up. Anything other than
// TopSideUp means the board is being carried or has crashed.
type Orientation uint8

const (
	TopSideUp Orientation = iota
	BottomSideUp
	LeftSideUp
	RightSideUp
	FrontSideUp
	BackSideUp
	UnknownSideUp
)

func (o Orientation) String() string {
	switch o {
	case TopSideUp:
		return "top"
	case BottomSideUp:
		return "bottom"
	case LeftSideUp:
		return "left"
	case RightSideUp:
		return "right"
	case FrontSideUp:
		return "front"
	case BackSideUp:
		return "back"
	default:
		return "unknown"
	}
}

func ParseOrientation(s string) Orientation {
	switch s {
	case "top":
		return TopSideUp
	case "bottom":
		return BottomSideUp
	case "left":
		return LeftSideUp
	case "right":
		return RightSideUp
	case "front":
		return FrontSideUp
	case "back":
		return BackSideUp
	default:
		return UnknownSideUp
	}
}

// State is one sampled snapshot of the vehicle. Samples are produced by the
// motion collaborator and coalesced by the control core; only the most recent
// snapshot matters.
type State struct {
	Acceleration AccelerationState
	Turn         TurnState
	Orientation  Orientation
}
