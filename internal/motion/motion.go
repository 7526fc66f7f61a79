// Package motion produces vehicle state samples. On hardware this is fed by
// an IMU pipeline; the simulator here replays a scripted ride so the rest of
// the controller can run without one.
package motion

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/openboard/lightcore/internal/vehicle"
)

// Sink accepts vehicle state samples. Returns false when the sample was
// dropped; the simulator does not retry, the next sample supersedes it.
type Sink interface {
	QueueVehicleState(vehicle.State) bool
}

// Step holds one scripted vehicle state for a duration.
type Step struct {
	State vehicle.State
	Hold  time.Duration
}

// DemoRide is a short loop of riding, braking, and signalling.
func DemoRide() []Step {
	top := vehicle.TopSideUp
	return []Step{
		{State: vehicle.State{Acceleration: vehicle.Neutral, Turn: vehicle.Center, Orientation: top}, Hold: 3 * time.Second},
		{State: vehicle.State{Acceleration: vehicle.Neutral, Turn: vehicle.Left, Orientation: top}, Hold: 2 * time.Second},
		{State: vehicle.State{Acceleration: vehicle.Braking, Turn: vehicle.Left, Orientation: top}, Hold: 1 * time.Second},
		{State: vehicle.State{Acceleration: vehicle.Neutral, Turn: vehicle.Center, Orientation: top}, Hold: 3 * time.Second},
		{State: vehicle.State{Acceleration: vehicle.Braking, Turn: vehicle.Center, Orientation: top}, Hold: 2 * time.Second},
		{State: vehicle.State{Acceleration: vehicle.Neutral, Turn: vehicle.Right, Orientation: top}, Hold: 2 * time.Second},
		{State: vehicle.State{Acceleration: vehicle.Neutral, Turn: vehicle.Center, Orientation: vehicle.BottomSideUp}, Hold: 2 * time.Second},
	}
}

// Simulator replays a script into the sink on its own task, looping until
// stopped.
type Simulator struct {
	log    zerolog.Logger
	sink   Sink
	script []Step
	quit   chan struct{}
	done   chan struct{}
}

func NewSimulator(log zerolog.Logger, sink Sink, script []Step) *Simulator {
	return &Simulator{
		log:    log,
		sink:   sink,
		script: script,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *Simulator) Start() {
	go s.run()
}

// Stop signals the replay task and waits for it to exit.
func (s *Simulator) Stop() {
	close(s.quit)
	<-s.done
}

func (s *Simulator) run() {
	defer close(s.done)
	if len(s.script) == 0 {
		return
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	i := 0
	for {
		select {
		case <-s.quit:
			return
		case <-timer.C:
		}
		step := s.script[i%len(s.script)]
		if !s.sink.QueueVehicleState(step.State) {
			s.log.Debug().Msg("vehicle sample dropped")
		}
		i++
		timer.Reset(step.Hold)
	}
}
