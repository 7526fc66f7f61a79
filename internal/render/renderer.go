// Package render defines the contract a renderer strategy must satisfy to own
// the LED hardware, and the two built-in strategies: named pattern effects and
// the state-driven road lighting renderer.
package render

import "github.com/openboard/lightcore/internal/lights"

// Renderer is the minimal capability the control core schedules. Process is
// invoked periodically from the render host task; Shutdown is called exactly
// once, after the host task has stopped, before the instance is dropped.
type Renderer interface {
	Process()
	Shutdown()
}

// CommandQueues is implemented by renderers that accept light commands. Each
// queue is depth-1 by convention; senders never block and drop on full. Any
// accessor may return nil.
type CommandQueues interface {
	BrakeQueue() chan lights.Command
	TurnQueue() chan lights.Command
	HeadlightQueue() chan lights.Command
}

// CommandState is implemented by renderers that remember the last command
// applied per logical channel, used to re-seed listeners after a mode change.
type CommandState interface {
	BrakeCommand() lights.Command
	TurnCommand() lights.Command
	HeadlightCommand() lights.Command
}
