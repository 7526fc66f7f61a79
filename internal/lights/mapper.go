package lights

import "github.com/openboard/lightcore/internal/vehicle"

// Pure vehicle-state to light-command translation. Called once per distinct
// state change; unmapped states always resolve to a safe default.

// BrakeCommand maps an acceleration class to the brake light command.
func BrakeCommand(s vehicle.AccelerationState) Command {
	switch s {
	case vehicle.Braking:
		return LightsBrake
	default:
		return LightsRunning
	}
}

// TurnCommand maps a turn signal state to the turn light command.
func TurnCommand(s vehicle.TurnState) Command {
	switch s {
	case vehicle.Left:
		return LightsTurnLeft
	case vehicle.Right:
		return LightsTurnRight
	case vehicle.Hazard:
		return LightsTurnHazard
	default:
		return LightsTurnCenter
	}
}

// OrientationCommand maps board orientation to the command applied to brake,
// turn, and headlight channels simultaneously: lights off when the board is
// top side up, full redraw on any other orientation.
func OrientationCommand(o vehicle.Orientation) Command {
	switch o {
	case vehicle.TopSideUp:
		return LightsOff
	default:
		return LightsReset
	}
}
