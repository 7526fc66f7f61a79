package render

import (
	"time"

	"github.com/openboard/lightcore/internal/lights"
)

// Conventional region names the running renderer drives.
const (
	RegionBrake     = "brake"
	RegionHeadlight = "front"
	RegionTurnLeft  = "left"
	RegionTurnRight = "right"
)

const blinkIntervalMs = 400

// Running is the state-driven road lighting renderer: it consumes brake,
// turn, and headlight commands from its depth-1 queues and composites layered
// effects per region, highest layer winning.
type Running struct {
	strip *lights.Strip
	cfg   lights.Config

	brake     chan lights.Command
	turn      chan lights.Command
	headlight chan lights.Command

	lastBrake     lights.Command
	lastTurn      lights.Command
	lastHeadlight lights.Command

	// region -> layer -> requested effect
	layers    map[string]map[uint8]lights.Parameters
	suspended bool
	dirty     bool
	step      lights.RenderStep
	now       func() uint64
}

func NewRunning(strip *lights.Strip, cfg lights.Config) *Running {
	r := &Running{
		strip:     strip,
		cfg:       cfg,
		brake:     make(chan lights.Command, 1),
		turn:      make(chan lights.Command, 1),
		headlight: make(chan lights.Command, 1),
		layers:    make(map[string]map[uint8]lights.Parameters),
		now:       func() uint64 { return uint64(time.Now().UnixMilli()) },
	}
	r.applyBrake(lights.LightsRunning)
	r.applyTurn(lights.LightsTurnCenter)
	r.applyHeadlight(lights.LightsHeadlightNormal)
	return r
}

func (r *Running) BrakeQueue() chan lights.Command     { return r.brake }
func (r *Running) TurnQueue() chan lights.Command      { return r.turn }
func (r *Running) HeadlightQueue() chan lights.Command { return r.headlight }

func (r *Running) BrakeCommand() lights.Command     { return r.lastBrake }
func (r *Running) TurnCommand() lights.Command      { return r.lastTurn }
func (r *Running) HeadlightCommand() lights.Command { return r.lastHeadlight }

// Process drains the command queues, advances blink phase, and renders a
// frame when anything changed.
func (r *Running) Process() {
	if c, ok := takeLatest(r.brake); ok {
		r.applyBrake(c)
	}
	if c, ok := takeLatest(r.turn); ok {
		r.applyTurn(c)
	}
	if c, ok := takeLatest(r.headlight); ok {
		r.applyHeadlight(c)
	}

	now := r.now()
	if now >= r.step.Next {
		r.step.Step++
		r.step.Next = now + blinkIntervalMs
		if r.hasBlinking() {
			r.dirty = true
		}
	}

	if !r.dirty {
		return
	}
	r.dirty = false
	r.composite()
	_ = r.strip.Render()
}

// Shutdown blanks the strip. Called once, after the host task has stopped.
func (r *Running) Shutdown() {
	r.strip.Clear()
	_ = r.strip.Render()
}

func takeLatest(ch chan lights.Command) (lights.Command, bool) {
	var last lights.Command
	got := false
	for {
		select {
		case c := <-ch:
			last = c
			got = true
		default:
			return last, got
		}
	}
}

func (r *Running) applyBrake(c lights.Command) {
	switch c {
	case lights.LightsBrake:
		r.setLayer(lights.Parameters{
			Region: RegionBrake, Effect: lights.EffectStatic, Layer: 2,
			First: lights.Color{R: 255},
		})
	case lights.LightsRunning:
		r.clearLayer(RegionBrake, 2)
		r.setLayer(lights.Parameters{
			Region: RegionBrake, Effect: lights.EffectStatic, Layer: 1,
			First: lights.Color{R: 60},
		})
	case lights.LightsOff, lights.LightsReset:
		r.applyGlobal(c)
	default:
		return
	}
	r.lastBrake = c
	r.dirty = true
}

func (r *Running) applyTurn(c lights.Command) {
	blink := func(region string) lights.Parameters {
		return lights.Parameters{
			Region: region, Effect: lights.EffectBlink, Layer: 3,
			First: lights.Color{R: 255, G: 120}, Duration: blinkIntervalMs,
		}
	}
	switch c {
	case lights.LightsTurnLeft:
		r.setLayer(blink(RegionTurnLeft))
		r.clearLayer(RegionTurnRight, 3)
	case lights.LightsTurnRight:
		r.setLayer(blink(RegionTurnRight))
		r.clearLayer(RegionTurnLeft, 3)
	case lights.LightsTurnHazard:
		r.setLayer(blink(RegionTurnLeft))
		r.setLayer(blink(RegionTurnRight))
	case lights.LightsTurnCenter:
		r.clearLayer(RegionTurnLeft, 3)
		r.clearLayer(RegionTurnRight, 3)
	case lights.LightsOff, lights.LightsReset:
		r.applyGlobal(c)
	default:
		return
	}
	r.lastTurn = c
	r.dirty = true
}

func (r *Running) applyHeadlight(c lights.Command) {
	switch c {
	case lights.LightsHeadlightNormal:
		r.clearLayer(RegionHeadlight, 2)
		r.setLayer(lights.Parameters{
			Region: RegionHeadlight, Effect: lights.EffectStatic, Layer: 1,
			First: lights.Color{R: 180, G: 180, B: 160},
		})
	case lights.LightsHeadlightBright:
		r.setLayer(lights.Parameters{
			Region: RegionHeadlight, Effect: lights.EffectStatic, Layer: 2,
			First: lights.Color{R: 255, G: 255, B: 255},
		})
	case lights.LightsOff, lights.LightsReset:
		r.applyGlobal(c)
	default:
		return
	}
	r.lastHeadlight = c
	r.dirty = true
}

// applyGlobal handles the two commands that address every logical channel at
// once: LightsOff suspends output, LightsReset resumes and forces a redraw.
func (r *Running) applyGlobal(c lights.Command) {
	r.suspended = c == lights.LightsOff
	r.dirty = true
}

func (r *Running) setLayer(p lights.Parameters) {
	m, ok := r.layers[p.Region]
	if !ok {
		m = make(map[uint8]lights.Parameters)
		r.layers[p.Region] = m
	}
	m[p.Layer] = p
}

func (r *Running) clearLayer(region string, layer uint8) {
	if m, ok := r.layers[region]; ok {
		delete(m, layer)
	}
}

func (r *Running) hasBlinking() bool {
	if r.suspended {
		return false
	}
	for _, m := range r.layers {
		if p, ok := top(m); ok && p.Effect == lights.EffectBlink {
			return true
		}
	}
	return false
}

func (r *Running) composite() {
	r.strip.Clear()
	if r.suspended {
		return
	}
	for region, m := range r.layers {
		p, ok := top(m)
		if !ok {
			continue
		}
		switch p.Effect {
		case lights.EffectStatic:
			r.strip.FillRegion(region, p.First)
		case lights.EffectBlink:
			if r.step.Step%2 == 0 {
				r.strip.FillRegion(region, p.First)
			} else {
				r.strip.FillRegion(region, p.Second)
			}
		default:
			// Off and unhandled effects leave the region dark.
		}
	}
}

// top returns the highest-layer entry for one region.
func top(m map[uint8]lights.Parameters) (lights.Parameters, bool) {
	var best lights.Parameters
	found := false
	for _, p := range m {
		if !found || best.Less(p) {
			best = p
			found = true
		}
	}
	return best, found
}

var (
	_ Renderer      = (*Running)(nil)
	_ CommandQueues = (*Running)(nil)
	_ CommandState  = (*Running)(nil)
	_ Renderer      = (*Pattern)(nil)
)
