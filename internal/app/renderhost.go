package app

import (
	"time"

	"github.com/openboard/lightcore/internal/render"
)

// renderHost is the owned handle for one background render task. The task
// serves exactly one renderer instance for its whole lifetime; stopping the
// host joins the task before the renderer may be shut down, which gives the
// shutdown-before-next-process ordering guarantee.
type renderHost struct {
	quit chan struct{}
	done chan struct{}
}

// stop signals the task and waits for it to exit.
func (h *renderHost) stop() {
	close(h.quit)
	<-h.done
}

// startRenderHost spawns the render host task for r. The task polls the
// renderer at the fixed frame cadence until stopped.
func (a *App) startRenderHost(r render.Renderer) {
	h := &renderHost{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	a.host = h

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(RenderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-h.quit:
				return
			case <-ticker.C:
				r.Process()
			}
		}
	}()
}

// teardownRenderer stops the host task, then shuts the renderer down, then
// drops both handles. Teardown is synchronous: when it returns, no task will
// ever call into the old renderer again.
func (a *App) teardownRenderer() {
	if a.host != nil {
		a.host.stop()
		a.host = nil
	}
	if a.renderer != nil {
		a.renderer.Shutdown()
		a.renderer = nil
	}
}
