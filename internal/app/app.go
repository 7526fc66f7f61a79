// Package app is the control core of the lighting controller. The App owns
// the current vehicle-state snapshot and the active renderer, consumes
// config-update, mode-change, and vehicle-state messages from its bounded
// channels, translates state changes into light commands, and fans change
// notifications out to registered listeners.
//
// All cross-task communication is drop-on-full: the processing cycle never
// stalls waiting on a slow consumer.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openboard/lightcore/internal/config"
	"github.com/openboard/lightcore/internal/lights"
	"github.com/openboard/lightcore/internal/mailbox"
	"github.com/openboard/lightcore/internal/render"
	"github.com/openboard/lightcore/internal/vehicle"
)

// RenderInterval is the render host cadence: the effect frame rate,
// independent of input arrival rate.
const RenderInterval = 50 * time.Millisecond

const vehicleQueueDepth = 5

// RendererFactory builds the renderer strategy for a mode. cfg carries the
// live lighting topology for state-driven renderers; it may be nil before the
// first config load. Tests substitute instrumented fakes.
type RendererFactory func(mode lights.Mode, cfg *lights.Config) (render.Renderer, error)

// StripFactory is the production factory: name-parameterized pattern
// renderers for the effect modes, the state-driven running renderer bound to
// live configuration otherwise.
func StripFactory(strip *lights.Strip) RendererFactory {
	return func(mode lights.Mode, cfg *lights.Config) (render.Renderer, error) {
		switch mode {
		case lights.ModeTheaterChaseRainbow:
			return render.NewPattern(strip, render.PatternTheaterChaseRainbow), nil
		case lights.ModeTheaterChase:
			return render.NewPattern(strip, render.PatternTheaterChase), nil
		case lights.ModeRainbow:
			return render.NewPattern(strip, render.PatternRainbow), nil
		case lights.ModeLightning:
			return render.NewPattern(strip, render.PatternLightning), nil
		default:
			var c lights.Config
			if cfg != nil {
				c = *cfg
			}
			return render.NewRunning(strip, c), nil
		}
	}
}

// RenderListener receives light command bundles. The channel is written with
// non-blocking sends; a full channel drops that notification for that
// listener only.
type RenderListener interface {
	CommandsQueue() chan lights.Commands
}

// Processor is a collaborator hook serviced once per processing cycle.
type Processor interface {
	Process()
}

// App is the orchestrator. Its methods are driven from a single consumer
// task (Run / Process); producers on other tasks interact only through
// NotifyConfigUpdated, RequestLightMode, and QueueVehicleState.
type App struct {
	log        zerolog.Logger
	factory    RendererFactory
	loadConfig func() (*config.Config, error)

	configUpdated *mailbox.Mailbox[bool]
	modeRequests  *mailbox.Mailbox[lights.Mode]
	vehicleStates *mailbox.Queue[vehicle.State]

	state     vehicle.State
	mode      lights.Mode
	hasMode   bool
	renderer  render.Renderer
	host      *renderHost
	cfg       *config.Config
	listeners []RenderListener
	hooks     []Processor
}

// New wires an App. loadConfig is invoked on every config-update signal so
// the core always acts on a fresh snapshot.
func New(log zerolog.Logger, factory RendererFactory, loadConfig func() (*config.Config, error)) *App {
	return &App{
		log:           log,
		factory:       factory,
		loadConfig:    loadConfig,
		configUpdated: mailbox.NewMailbox[bool](),
		modeRequests:  mailbox.NewMailbox[lights.Mode](),
		vehicleStates: mailbox.NewQueue[vehicle.State](vehicleQueueDepth),
	}
}

// NotifyConfigUpdated signals that persisted configuration changed. Safe
// from any task; a pending signal is simply replaced.
func (a *App) NotifyConfigUpdated() { a.configUpdated.Put(true) }

// RequestLightMode requests a renderer swap. A newer request overwrites an
// undelivered one.
func (a *App) RequestLightMode(m lights.Mode) { a.modeRequests.Put(m) }

// QueueVehicleState enqueues a vehicle state sample. Returns false when the
// queue is full and the sample was dropped.
func (a *App) QueueVehicleState(s vehicle.State) bool { return a.vehicleStates.TryPush(s) }

// AddRenderListener registers a listener for light change notifications.
func (a *App) AddRenderListener(l RenderListener) {
	if l != nil {
		a.listeners = append(a.listeners, l)
	}
}

// RemoveRenderListener deregisters a previously added listener.
func (a *App) RemoveRenderListener(l RenderListener) {
	for i, cur := range a.listeners {
		if cur == l {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			return
		}
	}
}

// AddProcessHook registers a collaborator serviced each processing cycle.
func (a *App) AddProcessHook(p Processor) {
	if p != nil {
		a.hooks = append(a.hooks, p)
	}
}

// Mode returns the current light mode. Only meaningful on the processing task.
func (a *App) Mode() lights.Mode { return a.mode }

// State returns the current vehicle snapshot. Only meaningful on the
// processing task.
func (a *App) State() vehicle.State { return a.state }

// Run drives the processing cycle at the given poll interval until ctx is
// canceled, then powers the lights down.
func (a *App) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.OnPowerDown()
			return
		case <-ticker.C:
			a.Process()
		}
	}
}

// Process runs one cooperative cycle: config signal, mode request, coalesced
// vehicle state, then collaborator hooks. It never blocks on any channel.
func (a *App) Process() {
	if v, ok := a.configUpdated.TryTake(); ok && v {
		a.onConfigUpdated()
	}

	if m, ok := a.modeRequests.TryTake(); ok {
		a.SetLightMode(m)
	}

	if s, ok := a.vehicleStates.DrainLatest(); ok {
		if s.Acceleration != a.state.Acceleration {
			a.onAccelerationChanged(s.Acceleration)
		}
		if s.Turn != a.state.Turn {
			a.onTurnChanged(s.Turn)
		}
		if s.Orientation != a.state.Orientation {
			a.onOrientationChanged(s.Orientation)
		}
		a.state = s
	}

	for _, h := range a.hooks {
		h.Process()
	}
}

// OnPowerUp re-seeds listeners with the active renderer's last known
// commands so late-registered consumers start from real state.
func (a *App) OnPowerUp() {
	if cs, ok := a.renderer.(render.CommandState); ok {
		a.notifyLightsChanged(lights.Commands{
			Brake:     cs.BrakeCommand(),
			Turn:      cs.TurnCommand(),
			Headlight: cs.HeadlightCommand(),
		})
	}
}

// OnPowerDown stops the render host and shuts the renderer down.
func (a *App) OnPowerDown() {
	a.log.Debug().Msg("power down")
	a.teardownRenderer()
}

func (a *App) onConfigUpdated() {
	cfg, err := a.loadConfig()
	if err != nil {
		a.log.Warn().Err(err).Msg("config reload failed")
		return
	}
	a.cfg = cfg
	a.log.Debug().Str("renderer", cfg.Prefs.Renderer).Msg("renderer starting after config update")
	a.SetLightMode(cfg.DefaultMode())
}

// SetLightMode swaps the active renderer. Requesting the current mode is a
// no-op. Teardown of the old renderer and its host task completes before the
// new renderer is constructed; no two renderers are ever active at once.
func (a *App) SetLightMode(mode lights.Mode) {
	if a.hasMode && a.mode == mode {
		return
	}

	a.teardownRenderer()

	var cfg *lights.Config
	if a.cfg != nil {
		cfg = &a.cfg.Lights
	}
	r, err := a.factory(mode, cfg)
	if err != nil {
		// Explicit no-active-renderer state: commands are dropped until the
		// next successful mode change.
		a.log.Warn().Err(err).Stringer("mode", mode).Msg("renderer construction failed")
	} else {
		a.renderer = r
		a.startRenderHost(r)
	}

	a.mode = mode
	a.hasMode = true
	a.notifyLightsChanged(lights.Commands{})
}

func (a *App) onAccelerationChanged(s vehicle.AccelerationState) {
	if a.renderer == nil {
		return
	}
	a.setBrakes(lights.BrakeCommand(s))
}

func (a *App) onTurnChanged(s vehicle.TurnState) {
	if a.renderer == nil {
		return
	}
	a.setTurnLights(lights.TurnCommand(s))
}

func (a *App) onOrientationChanged(o vehicle.Orientation) {
	if a.renderer == nil {
		return
	}
	cmd := lights.OrientationCommand(o)
	a.setTurnLights(cmd)
	a.setBrakes(cmd)
	a.setHeadlight(cmd)
}

func (a *App) setBrakes(c lights.Command) {
	if q, ok := a.renderer.(render.CommandQueues); ok {
		mailbox.TrySend[lights.Command](q.BrakeQueue(), c)
	}
	a.notifyLightsChanged(lights.Commands{Brake: c})
}

func (a *App) setTurnLights(c lights.Command) {
	if q, ok := a.renderer.(render.CommandQueues); ok {
		mailbox.TrySend[lights.Command](q.TurnQueue(), c)
	}
	a.notifyLightsChanged(lights.Commands{Turn: c})
}

func (a *App) setHeadlight(c lights.Command) {
	if q, ok := a.renderer.(render.CommandQueues); ok {
		mailbox.TrySend[lights.Command](q.HeadlightQueue(), c)
	}
	a.notifyLightsChanged(lights.Commands{Headlight: c})
}

// notifyLightsChanged fans a bundle out to every listener with best-effort,
// at-most-once delivery. A full or absent channel drops the notification for
// that listener; it is never retried.
func (a *App) notifyLightsChanged(b lights.Commands) {
	b.Mode = a.mode
	for _, l := range a.listeners {
		mailbox.TrySend(l.CommandsQueue(), b)
	}
}
