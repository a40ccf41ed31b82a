package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	c "lautenbacher.net/fireflyjar/config"
)

func TestTouchSensorSmoothing(t *testing.T) {
	sensor := newTouchSensor(4)

	assert.Equal(t, 25, sensor.smoothedValue(100))
	assert.Equal(t, 50, sensor.smoothedValue(100))
	assert.Equal(t, 75, sensor.smoothedValue(100))
	assert.Equal(t, 100, sensor.smoothedValue(100))

	// A single spike moves the average only by its share.
	assert.Equal(t, 175, sensor.smoothedValue(400))

	// The spike ages out of the window again.
	sensor.smoothedValue(100)
	sensor.smoothedValue(100)
	sensor.smoothedValue(100)
	assert.Equal(t, 100, sensor.smoothedValue(100))
}

func TestTouchSensorHistory(t *testing.T) {
	sensor := newTouchSensor(1)

	// The trigger check reads the newest smoothed reading from the
	// history tail, so recording must keep the tail current.
	sensor.record(300)
	assert.Equal(t, 300, sensor.latest())
	sensor.record(700)
	assert.Equal(t, 700, sensor.latest())
	assert.Equal(t, 2, sensor.history.Len())
	assert.Equal(t, 300, sensor.history.Front())

	// The history is bounded; old readings age out at the front.
	for i := 0; i < touchSensorHistory+10; i++ {
		sensor.record(i)
	}
	assert.Equal(t, touchSensorHistory, sensor.history.Len())
	assert.Equal(t, touchSensorHistory+9, sensor.latest())
}

func TestRPiWriteIntensityBounds(t *testing.T) {
	conf := &c.Config{Firefly: c.FireflyConfig{Count: 3}}
	platform := NewRaspberryPiPlatform(conf)

	platform.WriteIntensity(0, 10)
	platform.WriteIntensity(2, 30)
	platform.WriteIntensity(-1, 99)
	platform.WriteIntensity(3, 99)

	assert.Equal(t, []int{10, 0, 30}, platform.intensities)
}
