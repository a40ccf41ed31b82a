// Package platform abstracts the jar hardware away from the
// animation engine: the real build drives LED drivers through a
// multiplexed SPI DAC on a Raspberry Pi, the simulation renders the
// fireflies in a terminal UI. Both sides expose the same surface to
// the application.
package platform

import (
	u "lautenbacher.net/fireflyjar/util"
)

// Platform is the boundary between the engine/application and the
// output and input hardware.
type Platform interface {
	// Start initializes the platform (GPIO/SPI on real hardware,
	// the terminal UI in simulation) and launches its driver
	// goroutines.
	Start() error

	// Stop cleans up all platform resources.
	Stop()

	// WriteIntensity sets the output level for one actuator. Values
	// are on the engine's scaled output range; out-of-range indices
	// are silently ignored.
	WriteIntensity(index int, value int)

	// TouchEvents returns the channel delivering touch sensor
	// triggers from the jar lid.
	TouchEvents() <-chan *u.Trigger

	// ReleasePower drops the self-hold power line. On real hardware
	// this turns the jar off; the simulation just reports it.
	ReleasePower()

	// Ready returns a channel that is closed once the platform is
	// fully operational (e.g. the TUI has drawn its first frame).
	Ready() <-chan bool
}
