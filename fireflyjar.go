package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nathan-osman/go-sunrise"

	c "lautenbacher.net/fireflyjar/config"
	"lautenbacher.net/fireflyjar/firefly"
	"lautenbacher.net/fireflyjar/logging"
	pl "lautenbacher.net/fireflyjar/platform"
	"lautenbacher.net/fireflyjar/scheduler"
)

// App ties the firefly engine to a platform: it schedules the engine
// tick, watches the touch sensor for the inactivity power-off, keeps
// the flashing inside the night window, and serves the config API.
type App struct {
	config      *c.Config
	platform    pl.Platform
	swarm       *firefly.Swarm
	sched       *scheduler.Scheduler
	apiServer   *http.Server
	stopWatcher func()

	ossignal   chan os.Signal
	stopsignal chan struct{}
	shutdownWg sync.WaitGroup
}

func NewApp(ossignal chan os.Signal) *App {
	return &App{
		ossignal: ossignal,
	}
}

func main() {
	cfile := flag.String("config", c.CONFILE, "Config file to use")
	realhw := flag.Bool("real", false, "Run against the real jar hardware")
	flag.Parse()

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)

	app := NewApp(ossignal)
	app.initialise(*cfile, *realhw)

	for {
		sig := <-ossignal
		if sig == syscall.SIGHUP {
			slog.Info("Reloading configuration and restarting...")
			app.shutdown()
			app.initialise(*cfile, *realhw)
		} else {
			slog.Info("Shutting down...", "signal", sig)
			app.shutdown()
			logging.Close()
			os.Exit(0)
		}
	}
}

// initialise builds the full running system from the config file. It
// is called at startup and again after every reload.
func (a *App) initialise(cfile string, realhw bool) {
	conf, err := c.ReadConfig(cfile, realhw)
	if err != nil {
		slog.Error("Failed to read config", "error", err)
		os.Exit(1)
	}
	a.config = conf
	a.stopsignal = make(chan struct{})

	logcfg := conf.Logging.TUI
	if realhw {
		logcfg = conf.Logging.HW
	}
	// In the simulation, logging buffers until the TUI log pane exists.
	if err := logging.Init(!realhw, logcfg); err != nil {
		slog.Error("Failed to initialise logging", "error", err)
		os.Exit(1)
	}

	if err := firefly.ValidatePatterns(); err != nil {
		slog.Error("Built-in flash pattern table is broken", "error", err)
		os.Exit(1)
	}

	if realhw {
		a.platform = pl.NewRaspberryPiPlatform(conf)
	} else {
		a.platform = pl.NewTUIPlatform(conf, a.ossignal)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	a.swarm = firefly.NewSwarm(conf.Firefly, rng, a.platform)

	if err := a.platform.Start(); err != nil {
		slog.Error("Failed to start platform", "error", err)
		os.Exit(1)
	}
	<-a.platform.Ready()

	a.sched = scheduler.New()
	if err := a.sched.AddTask("firefly-tick", conf.Firefly.TickInterval, a.swarm.Tick); err != nil {
		slog.Error("Failed to schedule engine tick", "error", err)
		os.Exit(1)
	}
	a.sched.Start()

	if conf.NightWindow.Enabled {
		a.shutdownWg.Add(1)
		go a.nightWindowRunner()
	}

	a.shutdownWg.Add(1)
	go a.monitorActivity()

	if conf.API.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/api/config", c.ConfigHandler(conf.Configfile))
		a.apiServer = &http.Server{Addr: conf.API.Listen, Handler: mux}
		go func() {
			slog.Info("Starting config API", "listen", conf.API.Listen)
			if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Config API server failed", "error", err)
			}
		}()
	}

	stopWatcher, err := c.WatchConfig(conf.Configfile, a.ossignal)
	if err != nil {
		slog.Error("Failed to watch config file", "error", err)
		os.Exit(1)
	}
	a.stopWatcher = stopWatcher

	slog.Info("Firefly jar is up", "fireflies", a.swarm.Size(), "realhw", realhw)
}

// shutdown tears everything down in the reverse order of initialise.
// The app can be initialised again afterwards.
func (a *App) shutdown() {
	if a.stopWatcher != nil {
		a.stopWatcher()
		a.stopWatcher = nil
	}
	if a.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.apiServer.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down config API", "error", err)
		}
		cancel()
		a.apiServer = nil
	}
	a.sched.Stop()
	close(a.stopsignal)
	a.shutdownWg.Wait()
	a.platform.Stop()
}

// monitorActivity watches the touch sensor. Every touch resets the
// inactivity timer; when the timer runs out the power hold line is
// released and the jar switches itself off. A timeout of zero disables
// the power-off.
func (a *App) monitorActivity() {
	defer a.shutdownWg.Done()

	timeout := a.config.Hardware.PowerHold.Timeout
	var timer *time.Timer
	var timeoutChan <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutChan = timer.C
	}

	for {
		select {
		case <-a.stopsignal:
			return
		case trigger := <-a.platform.TouchEvents():
			slog.Debug("Touch detected", "value", trigger.Value)
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(timeout)
			}
		case <-timeoutChan:
			slog.Info("No touch detected within timeout, powering off", "timeout", timeout)
			a.platform.ReleasePower()
			return
		}
	}
}

// nightWindowPhase decides whether it is daylight at the location and
// how long to wait for the next sunrise or sunset. At latitudes where
// the sun currently neither rises nor sets the astral times come back
// zero and every difference turns negative, so the wait is clamped to
// an hourly re-check instead of letting the runner spin.
func nightWindowPhase(lat, lon float64, now time.Time) (day bool, wait time.Duration) {
	next := now.Add(24 * time.Hour)
	rise, set := sunrise.SunriseSunset(lat, lon, now.Year(), now.Month(), now.Day())
	riseNext, _ := sunrise.SunriseSunset(lat, lon, next.Year(), next.Month(), next.Day())

	switch {
	case now.After(rise) && now.Before(set):
		// During the day - between sunrise and sunset.
		day = true
		wait = set.Sub(now)
	case now.Before(rise):
		// In the night after midnight but before sunrise.
		wait = rise.Sub(now)
	default:
		// In the night before midnight - wait until tomorrow's sunrise.
		wait = riseNext.Sub(now)
	}
	if wait <= 0 {
		wait = time.Hour
	}
	return day, wait
}

// nightWindowRunner suspends the swarm during daylight and wakes it up
// again after sunset. It sleeps until the next sunrise or sunset
// instead of polling.
func (a *App) nightWindowRunner() {
	defer a.shutdownWg.Done()

	lat := a.config.NightWindow.Latitude
	lon := a.config.NightWindow.Longitude

	for {
		day, wait := nightWindowPhase(lat, lon, time.Now())
		a.swarm.SetSuspended(day)
		if day {
			slog.Info("Daylight, fireflies are resting", "wait", wait)
		} else {
			slog.Info("Night time, fireflies are flashing", "wait", wait)
		}

		select {
		case <-a.stopsignal:
			return
		case <-time.After(wait):
		}
	}
}
