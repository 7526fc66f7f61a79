package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/openboard/lightcore/internal/app"
	"github.com/openboard/lightcore/internal/config"
	"github.com/openboard/lightcore/internal/led"
	"github.com/openboard/lightcore/internal/lights"
	"github.com/openboard/lightcore/internal/motion"
	"github.com/openboard/lightcore/internal/ws"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		driver     = flag.String("driver", "sim", "driver: spi | preview | sim")
		spiDev     = flag.String("spi-dev", "", "SPI port name (empty selects the first available)")
		simRide    = flag.Bool("sim-ride", false, "replay a scripted demo ride into the vehicle queue")
		pollMs     = flag.Int("poll-ms", 10, "control cycle poll interval (ms)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	loadConfig := func() (*config.Config, error) { return config.Load(*configPath) }
	cfg, err := loadConfig()
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using built-in defaults")
		cfg = config.Default()
		loadConfig = func() (*config.Config, error) { return config.Default(), nil }
	}

	drivers := buildDrivers(*driver, *spiDev, cfg.Lights)
	strip := lights.NewStrip(cfg.Lights, drivers)
	if cfg.Prefs.Brightness > 0 {
		strip.SetBrightness(cfg.Prefs.Brightness)
	}

	a := app.New(log.Logger, app.StripFactory(strip), loadConfig)

	svc := ws.NewService(log.Logger, a)
	a.AddRenderListener(svc)
	a.AddProcessHook(svc)

	// Boot the default renderer through the same path a file change takes.
	a.NotifyConfigUpdated()

	watcher := config.NewWatcher(log.Logger, *configPath, 500*time.Millisecond, a.NotifyConfigUpdated)
	if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("config watcher unavailable; live reload disabled")
	} else {
		defer watcher.Stop()
	}

	var sim *motion.Simulator
	if *simRide {
		sim = motion.NewSimulator(log.Logger, a, motion.DemoRide())
		sim.Start()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", svc.HandleCommandsWS)
	mux.HandleFunc("/control", svc.HandleControlWS)
	mux.HandleFunc("/health", svc.HandleHealth)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	coreDone := make(chan struct{})
	go func() {
		defer close(coreDone)
		a.Run(ctx, time.Duration(*pollMs)*time.Millisecond)
	}()

	go func() {
		log.Info().Str("addr", *addr).Str("driver", *driver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	if sim != nil {
		sim.Stop()
	}
	cancel()
	<-coreDone
	_ = srv.Close()
	for id, drv := range drivers {
		if err := drv.Close(); err != nil {
			log.Warn().Err(err).Uint8("channel", id).Msg("driver close failed")
		}
	}
}

// buildDrivers constructs one driver per configured channel. SPI serves the
// first channel only; additional channels fall back to in-memory drivers with
// a warning, since one port drives one strip.
func buildDrivers(kind, spiDev string, cfg lights.Config) map[uint8]led.Driver {
	drivers := make(map[uint8]led.Driver, len(cfg.Channels))
	spiTaken := false
	for id, ch := range cfg.Channels {
		count := int(ch.LEDs)
		switch kind {
		case "spi":
			if spiTaken {
				log.Warn().Uint8("channel", id).Msg("only one SPI port available; channel runs in memory")
				drivers[id] = led.NewSim(count)
				continue
			}
			if _, err := host.Init(); err != nil {
				log.Warn().Err(err).Msg("periph host init failed; falling back to sim")
				drivers[id] = led.NewSim(count)
				continue
			}
			drv, err := led.NewSPI(spiDev, count)
			if err != nil {
				log.Warn().Err(err).Uint8("channel", id).Str("dev", spiDev).Msg("SPI init failed; falling back to sim")
				drivers[id] = led.NewSim(count)
				continue
			}
			drivers[id] = drv
			spiTaken = true

		case "preview":
			drivers[id] = led.NewPreview(count)

		case "sim":
			drivers[id] = led.NewSim(count)

		default:
			log.Warn().Str("driver", kind).Msg("unknown driver; using sim")
			drivers[id] = led.NewSim(count)
		}
	}
	return drivers
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
