package app_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openboard/lightcore/internal/app"
	"github.com/openboard/lightcore/internal/config"
	"github.com/openboard/lightcore/internal/lights"
	"github.com/openboard/lightcore/internal/render"
	"github.com/openboard/lightcore/internal/vehicle"
)

// recorder collects renderer lifecycle events across goroutines.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeRenderer struct {
	name      string
	rec       *recorder
	processed chan struct{}

	brake, turn, head             chan lights.Command
	lastBrake, lastTurn, lastHead lights.Command
}

func newFakeRenderer(name string, rec *recorder) *fakeRenderer {
	return &fakeRenderer{
		name:      name,
		rec:       rec,
		processed: make(chan struct{}, 1),
		brake:     make(chan lights.Command, 1),
		turn:      make(chan lights.Command, 1),
		head:      make(chan lights.Command, 1),
	}
}

func (f *fakeRenderer) Process() {
	f.rec.add(f.name + ":process")
	select {
	case f.processed <- struct{}{}:
	default:
	}
}

func (f *fakeRenderer) Shutdown() { f.rec.add(f.name + ":shutdown") }

func (f *fakeRenderer) BrakeQueue() chan lights.Command     { return f.brake }
func (f *fakeRenderer) TurnQueue() chan lights.Command      { return f.turn }
func (f *fakeRenderer) HeadlightQueue() chan lights.Command { return f.head }

func (f *fakeRenderer) BrakeCommand() lights.Command     { return f.lastBrake }
func (f *fakeRenderer) TurnCommand() lights.Command      { return f.lastTurn }
func (f *fakeRenderer) HeadlightCommand() lights.Command { return f.lastHead }

var (
	_ render.Renderer      = (*fakeRenderer)(nil)
	_ render.CommandQueues = (*fakeRenderer)(nil)
	_ render.CommandState  = (*fakeRenderer)(nil)
)

// fakeFactory builds fake renderers keyed by mode and records every attempt.
type fakeFactory struct {
	rec     *recorder
	built   []lights.Mode
	fail    map[lights.Mode]bool
	lastCfg *lights.Config
	current *fakeRenderer
}

func newFakeFactory(rec *recorder) *fakeFactory {
	return &fakeFactory{rec: rec, fail: map[lights.Mode]bool{}}
}

func (f *fakeFactory) make(mode lights.Mode, cfg *lights.Config) (render.Renderer, error) {
	f.built = append(f.built, mode)
	f.lastCfg = cfg
	if f.fail[mode] {
		return nil, errors.New("renderer construction failed")
	}
	r := newFakeRenderer(mode.String(), f.rec)
	f.current = r
	return r, nil
}

type fakeListener struct {
	ch chan lights.Commands
}

func newFakeListener(depth int) *fakeListener {
	return &fakeListener{ch: make(chan lights.Commands, depth)}
}

func (l *fakeListener) CommandsQueue() chan lights.Commands { return l.ch }

func (l *fakeListener) drain() []lights.Commands {
	var out []lights.Commands
	for {
		select {
		case b := <-l.ch:
			out = append(out, b)
		default:
			return out
		}
	}
}

func newTestApp(t *testing.T, f *fakeFactory) *app.App {
	t.Helper()
	a := app.New(zerolog.Nop(), f.make, func() (*config.Config, error) {
		return config.Default(), nil
	})
	t.Cleanup(a.OnPowerDown)
	return a
}

func waitProcessed(t *testing.T, r *fakeRenderer) {
	t.Helper()
	select {
	case <-r.processed:
	case <-time.After(2 * time.Second):
		t.Fatalf("renderer %s was never processed", r.name)
	}
}

func TestSetLightModeIdempotent(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	l := newFakeListener(8)
	a.AddRenderListener(l)

	a.SetLightMode(lights.ModeRainbow)
	a.SetLightMode(lights.ModeRainbow)

	if len(f.built) != 1 {
		t.Fatalf("expected exactly one renderer construction, got %d", len(f.built))
	}
	if got := l.drain(); len(got) != 1 {
		t.Fatalf("expected exactly one listener notification, got %d", len(got))
	}
}

func TestModeSwapShutdownPrecedesNextProcess(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)

	a.SetLightMode(lights.ModeRainbow)
	first := f.current
	waitProcessed(t, first)

	a.SetLightMode(lights.ModeLightning)
	second := f.current
	waitProcessed(t, second)

	events := rec.snapshot()
	shutdownAt := -1
	for i, e := range events {
		if e == "rainbow:shutdown" {
			shutdownAt = i
			break
		}
	}
	if shutdownAt == -1 {
		t.Fatalf("old renderer was never shut down: %v", events)
	}
	for _, e := range events[shutdownAt+1:] {
		if e == "rainbow:process" {
			t.Fatalf("old renderer processed after shutdown: %v", events)
		}
	}
	sawNew := false
	for _, e := range events[shutdownAt+1:] {
		if e == "lightning:process" {
			sawNew = true
		}
	}
	if !sawNew {
		t.Fatalf("new renderer never processed after swap: %v", events)
	}
	for _, e := range events[:shutdownAt] {
		if strings.HasPrefix(e, "lightning:") {
			t.Fatalf("new renderer active before old shutdown: %v", events)
		}
	}
}

func TestVehicleStateCoalescing(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	a.SetLightMode(lights.ModeRunning)
	l := newFakeListener(8)
	a.AddRenderListener(l)

	top := vehicle.TopSideUp
	states := []vehicle.State{
		{Acceleration: vehicle.Neutral, Turn: vehicle.Center, Orientation: top},
		{Acceleration: vehicle.Braking, Turn: vehicle.Center, Orientation: top},
		{Acceleration: vehicle.Braking, Turn: vehicle.Left, Orientation: top},
	}
	for _, s := range states {
		if !a.QueueVehicleState(s) {
			t.Fatal("vehicle queue rejected a sample below capacity")
		}
	}
	a.Process()

	got := l.drain()
	if len(got) != 2 {
		t.Fatalf("expected one evaluation against the newest state (2 bundles), got %d: %v", len(got), got)
	}
	if got[0].Brake != lights.LightsBrake {
		t.Fatalf("expected brake command from newest state, got %v", got[0].Brake)
	}
	if got[1].Turn != lights.LightsTurnLeft {
		t.Fatalf("expected turn-left from newest state, got %v", got[1].Turn)
	}

	select {
	case c := <-f.current.brake:
		if c != lights.LightsBrake {
			t.Fatalf("renderer brake queue got %v", c)
		}
	default:
		t.Fatal("renderer brake queue never received a command")
	}
}

func TestListenerFanOutSkipsFullChannel(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	a.SetLightMode(lights.ModeRunning)

	healthy1 := newFakeListener(4)
	healthy2 := newFakeListener(4)
	full := newFakeListener(1)
	full.ch <- lights.Commands{} // occupy the only slot
	a.AddRenderListener(healthy1)
	a.AddRenderListener(full)
	a.AddRenderListener(healthy2)

	a.QueueVehicleState(vehicle.State{
		Acceleration: vehicle.Braking,
		Turn:         vehicle.TurnUnknown,
		Orientation:  vehicle.TopSideUp,
	})
	a.Process()

	if got := healthy1.drain(); len(got) != 1 || got[0].Brake != lights.LightsBrake {
		t.Fatalf("healthy listener 1 missed the notification: %v", got)
	}
	if got := healthy2.drain(); len(got) != 1 || got[0].Brake != lights.LightsBrake {
		t.Fatalf("healthy listener 2 missed the notification: %v", got)
	}
	// The full listener keeps only its stale entry; the drop is silent.
	if got := full.drain(); len(got) != 1 || got[0].Brake != lights.NoCommand {
		t.Fatalf("full listener should retain only its original entry: %v", got)
	}
}

func TestRunningScenarioEndToEnd(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	a.SetLightMode(lights.ModeRunning)
	l := newFakeListener(16)
	a.AddRenderListener(l)

	a.QueueVehicleState(vehicle.State{
		Acceleration: vehicle.Neutral,
		Turn:         vehicle.Center,
		Orientation:  vehicle.TopSideUp,
	})
	a.Process()
	a.QueueVehicleState(vehicle.State{
		Acceleration: vehicle.Braking,
		Turn:         vehicle.Left,
		Orientation:  vehicle.TopSideUp,
	})
	a.Process()

	got := l.drain()
	want := []lights.Commands{
		{Mode: lights.ModeRunning, Brake: lights.LightsRunning},
		{Mode: lights.ModeRunning, Turn: lights.LightsTurnCenter},
		{Mode: lights.ModeRunning, Brake: lights.LightsBrake},
		{Mode: lights.ModeRunning, Turn: lights.LightsTurnLeft},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notification %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	for _, b := range got {
		if b.Brake == lights.LightsOff || b.Turn == lights.LightsOff || b.Headlight == lights.LightsOff {
			t.Fatalf("orientation did not change, no lights-off expected: %+v", b)
		}
	}
}

func TestOrientationChangeHitsAllThreeChannels(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	a.SetLightMode(lights.ModeRunning)
	l := newFakeListener(16)
	a.AddRenderListener(l)

	a.QueueVehicleState(vehicle.State{
		Acceleration: vehicle.AccelerationUnknown,
		Turn:         vehicle.TurnUnknown,
		Orientation:  vehicle.BottomSideUp,
	})
	a.Process()

	got := l.drain()
	if len(got) != 3 {
		t.Fatalf("expected turn, brake and headlight notifications, got %d: %v", len(got), got)
	}
	if got[0].Turn != lights.LightsReset || got[1].Brake != lights.LightsReset || got[2].Headlight != lights.LightsReset {
		t.Fatalf("expected reset on all three channels, got %v", got)
	}

	r := f.current
	for name, q := range map[string]chan lights.Command{"brake": r.brake, "turn": r.turn, "headlight": r.head} {
		select {
		case c := <-q:
			if c != lights.LightsReset {
				t.Fatalf("%s queue got %v, expected reset", name, c)
			}
		default:
			t.Fatalf("%s queue never received the orientation command", name)
		}
	}
}

func TestConstructionFailureLeavesNoActiveRenderer(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	f.fail[lights.ModeLightning] = true
	a := newTestApp(t, f)
	l := newFakeListener(8)
	a.AddRenderListener(l)

	a.SetLightMode(lights.ModeLightning)
	if got := l.drain(); len(got) != 1 || got[0].Mode != lights.ModeLightning {
		t.Fatalf("mode change should still notify listeners: %v", got)
	}

	// Commands are dropped while no renderer is active.
	a.QueueVehicleState(vehicle.State{Acceleration: vehicle.Braking, Orientation: vehicle.TopSideUp})
	a.Process()
	if got := l.drain(); len(got) != 0 {
		t.Fatalf("no notifications expected without an active renderer: %v", got)
	}

	// Requesting the failed mode again stays a no-op.
	a.SetLightMode(lights.ModeLightning)
	if len(f.built) != 1 {
		t.Fatalf("expected one construction attempt, got %d", len(f.built))
	}

	// The next successful mode change restores service.
	a.SetLightMode(lights.ModeRainbow)
	if f.current == nil {
		t.Fatal("expected an active renderer after successful swap")
	}
}

func TestListenerRemovalStopsDelivery(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	keep := newFakeListener(8)
	gone := newFakeListener(8)
	a.AddRenderListener(keep)
	a.AddRenderListener(gone)
	a.RemoveRenderListener(gone)

	a.SetLightMode(lights.ModeRainbow)

	if got := keep.drain(); len(got) != 1 {
		t.Fatalf("remaining listener should be notified, got %v", got)
	}
	if got := gone.drain(); len(got) != 0 {
		t.Fatalf("removed listener must not be notified, got %v", got)
	}
}

func TestConfigUpdateStartsDefaultRenderer(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	cfg := config.Default()
	cfg.Prefs.Renderer = "rainbow"
	a := app.New(zerolog.Nop(), f.make, func() (*config.Config, error) { return cfg, nil })
	t.Cleanup(a.OnPowerDown)

	a.NotifyConfigUpdated()
	a.NotifyConfigUpdated() // coalesced: single slot
	a.Process()

	if len(f.built) != 1 || f.built[0] != lights.ModeRainbow {
		t.Fatalf("expected one rainbow construction, got %v", f.built)
	}
	if f.lastCfg == nil || len(f.lastCfg.Regions) != 4 {
		t.Fatal("factory should receive the loaded lighting topology")
	}
}

func TestModeRequestOverwritesLatest(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)

	a.RequestLightMode(lights.ModeRainbow)
	a.RequestLightMode(lights.ModeTheaterChase)
	a.Process()

	if len(f.built) != 1 || f.built[0] != lights.ModeTheaterChase {
		t.Fatalf("only the latest mode request should apply, got %v", f.built)
	}
}

func TestOnPowerUpReseedsListeners(t *testing.T) {
	rec := &recorder{}
	f := newFakeFactory(rec)
	a := newTestApp(t, f)
	a.SetLightMode(lights.ModeRunning)
	f.current.lastBrake = lights.LightsBrake
	f.current.lastTurn = lights.LightsTurnHazard
	f.current.lastHead = lights.LightsHeadlightNormal

	l := newFakeListener(4)
	a.AddRenderListener(l)
	a.OnPowerUp()

	got := l.drain()
	if len(got) != 1 {
		t.Fatalf("expected one re-seed notification, got %d", len(got))
	}
	want := lights.Commands{
		Mode:      lights.ModeRunning,
		Brake:     lights.LightsBrake,
		Turn:      lights.LightsTurnHazard,
		Headlight: lights.LightsHeadlightNormal,
	}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
}
