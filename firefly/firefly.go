// Package firefly implements the animation engine of the jar: a
// fixed set of simulated fireflies, each running an independent,
// randomized flash/rest cycle. Every flash reproduces the light curve
// of one of six real species, softened by a moving-average window so
// the piecewise-linear pattern data turns into an organic glow.
//
// The engine is passive. It holds no goroutines and no timers; all
// state changes happen inside Tick, which the owner must call once
// per fixed interval from a single goroutine. The only external
// effect is one IntensityWriter call per flashing firefly per tick.
package firefly

import (
	"math/rand"
	"sync/atomic"
	"time"

	c "lautenbacher.net/fireflyjar/config"
)

// IntensityWriter receives the computed output intensity for one
// actuator per tick. Writes are best effort; the platform is free to
// ignore indices it cannot drive.
type IntensityWriter interface {
	WriteIntensity(index int, value int)
}

// Firefly is the lifecycle state of a single actuator. A firefly is
// either flashing (playing back a smoothed pattern) or waiting out a
// randomized rest delay. All times are in milliseconds.
type Firefly struct {
	brightness int
	flashing   bool
	flashID    FlashID
	flashTime  int
	smoothing  int
	delayLen   int
	delayTime  int
}

// step advances a flashing firefly by timeStep milliseconds and
// recomputes its smoothed brightness. The flash is over once the
// brightness reads zero and the window has fully cleared the tail of
// the pattern; checking flashTime > smoothing instead of > 0 avoids
// ending early when the window straddles a zero-crossing keyframe.
func (f *Firefly) step(timeStep int) {
	f.flashTime += timeStep
	f.brightness = f.flashID.Pattern().Smoothed(f.flashTime, f.smoothing)
	if f.brightness == 0 && f.smoothing < f.flashTime {
		f.flashing = false
	}
}

// Brightness returns the most recent smoothed output value.
func (f *Firefly) Brightness() int {
	return f.brightness
}

// Flashing reports whether the firefly is currently executing a flash.
func (f *Firefly) Flashing() bool {
	return f.flashing
}

// Swarm owns the fixed-size set of fireflies. It is created once at
// startup and advanced exclusively through Tick; no other code may
// mutate the firefly states.
type Swarm struct {
	fireflies []Firefly
	out       IntensityWriter
	rng       *rand.Rand

	timeStep     int
	delayMin     int
	delayMax     int
	smoothingMin int
	smoothingMax int
	scaleNum     int
	scaleDen     int

	suspended atomic.Bool
}

// NewSwarm creates the swarm from the validated engine config. Every
// firefly starts dark with a fresh random rest delay so the jar does
// not light up in lockstep. The random source is injected to keep
// test runs reproducible.
func NewSwarm(cfg c.FireflyConfig, rng *rand.Rand, out IntensityWriter) *Swarm {
	s := &Swarm{
		fireflies:    make([]Firefly, cfg.Count),
		out:          out,
		rng:          rng,
		timeStep:     int(cfg.TickInterval / time.Millisecond),
		delayMin:     int(cfg.DelayMin / time.Millisecond),
		delayMax:     int(cfg.DelayMax / time.Millisecond),
		smoothingMin: cfg.SmoothingMin,
		smoothingMax: cfg.SmoothingMax,
		scaleNum:     cfg.ScaleNumerator,
		scaleDen:     cfg.ScaleDenominator,
	}
	for i := range s.fireflies {
		f := &s.fireflies[i]
		f.flashID = PhotinusPallens
		f.smoothing = cfg.SmoothingMin
		f.delayLen = s.randRange(s.delayMin, s.delayMax)
	}
	return s
}

// Size returns the number of fireflies in the swarm.
func (s *Swarm) Size() int {
	return len(s.fireflies)
}

// SetSuspended pauses (true) or resumes (false) the starting of new
// flashes. Flashes already in progress always run to completion so
// the jar fades out instead of cutting to black. Safe to call from
// any goroutine.
func (s *Swarm) SetSuspended(suspended bool) {
	s.suspended.Store(suspended)
}

// Suspended reports whether new flashes are currently held back.
func (s *Swarm) Suspended() bool {
	return s.suspended.Load()
}

// Tick advances every firefly by one time step. It must be invoked
// from a single goroutine at a fixed period matching the configured
// TickInterval; the engine does not defend against overlapping calls.
func (s *Swarm) Tick() {
	suspended := s.suspended.Load()
	for i := range s.fireflies {
		f := &s.fireflies[i]
		switch {
		case f.flashing:
			f.step(s.timeStep)
			s.out.WriteIntensity(i, f.brightness*s.scaleNum/s.scaleDen)
		case f.delayLen <= f.delayTime:
			if suspended {
				// hold at the end of the rest period; the flash
				// starts on the first tick after resume
				continue
			}
			f.flashID = FlashID(s.randRange(0, int(FlashCount)-1))
			f.smoothing = s.randRange(s.smoothingMin, s.smoothingMax)
			f.flashTime = -(f.smoothing / 2)
			f.flashing = true

			f.delayLen = s.randRange(s.delayMin, s.delayMax)
			f.delayTime = 0
		default:
			f.delayTime += s.timeStep
		}
	}
}

// randRange draws a uniformly distributed value from the inclusive
// range [min, max].
func (s *Swarm) randRange(min, max int) int {
	return s.rng.Intn(max-min+1) + min
}
