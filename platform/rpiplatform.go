package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/stianeikeland/go-rpio/v4"

	"lautenbacher.net/fireflyjar/config"
	"lautenbacher.net/fireflyjar/util"
)

// SPI chip selects: the DAC sits on CE0, the touch sensor ADC on CE1.
const (
	spiSlaveDAC = 0
	spiSlaveADC = 1
)

// RaspberryPiPlatform drives the real jar. A single SPI DAC generates
// the analog level for all LED drivers; an analog switch, addressed
// through the select GPIOs, routes the DAC output to one driver at a
// time while a small capacitor on each driver input holds the level
// between refreshes. The touch sensor is read through an ADC on the
// second SPI chip select.
type RaspberryPiPlatform struct {
	config      *config.Config
	touchEvents chan *util.Trigger
	stopChan    chan struct{}
	wg          sync.WaitGroup
	spiMutex    sync.Mutex

	intensityMu sync.Mutex
	intensities []int
	refreshIdx  int

	selectPins []rpio.Pin
	enablePin  rpio.Pin
	powerPin   rpio.Pin
	readyChan  chan bool
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	return &RaspberryPiPlatform{
		config:      conf,
		touchEvents: make(chan *util.Trigger),
		stopChan:    make(chan struct{}),
		intensities: make([]int, conf.Firefly.Count),
		readyChan:   make(chan bool),
	}
}

func (p *RaspberryPiPlatform) Ready() <-chan bool {
	return p.readyChan
}

func (p *RaspberryPiPlatform) TouchEvents() <-chan *util.Trigger {
	return p.touchEvents
}

func (p *RaspberryPiPlatform) Start() error {
	slog.Info("Initialise GPIO and SPI...")
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}

	// Claim the power hold line first so the touch power controller
	// does not cut us off while the rest initialises.
	p.powerPin = rpio.Pin(p.config.Hardware.PowerHold.GPIO)
	p.powerPin.Output()
	p.powerPin.High()

	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(p.config.Hardware.SPIFrequency)

	p.selectPins = make([]rpio.Pin, 0, len(p.config.Hardware.DAC.SelectGPIO))
	for _, pin := range p.config.Hardware.DAC.SelectGPIO {
		rpiopin := rpio.Pin(pin)
		rpiopin.Output()
		rpiopin.Low()
		p.selectPins = append(p.selectPins, rpiopin)
	}

	// nEnable high puts all switch outputs into high impedance.
	p.enablePin = rpio.Pin(p.config.Hardware.DAC.EnableGPIO)
	p.enablePin.Output()
	p.enablePin.High()

	p.wg.Add(2)
	go p.refreshDriver()
	go p.touchDriver()

	close(p.readyChan)
	return nil
}

func (p *RaspberryPiPlatform) Stop() {
	close(p.stopChan)
	p.wg.Wait()

	p.enablePin.High()
	rpio.SpiEnd(rpio.Spi0)
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
}

// WriteIntensity records the newest engine output for one driver.
// The value reaches the hardware on that driver's next refresh slot.
func (p *RaspberryPiPlatform) WriteIntensity(index, value int) {
	p.intensityMu.Lock()
	defer p.intensityMu.Unlock()
	if index < 0 || index >= len(p.intensities) {
		return
	}
	p.intensities[index] = value
}

// ReleasePower drops the self-hold line. The supply switches off a
// moment later, so there is usually no code running after this.
func (p *RaspberryPiPlatform) ReleasePower() {
	slog.Info("Releasing power hold line")
	p.powerPin.Low()
}

// refreshDriver round-robins over the LED drivers, refreshing the
// held level of exactly one driver per period, the same scheme the
// driver hardware is built around.
func (p *RaspberryPiPlatform) refreshDriver() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.config.Hardware.DAC.RefreshDelay)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			slog.Info("Ending DAC refresh go-routine")
			return
		case <-ticker.C:
			idx := p.refreshIdx
			p.refreshIdx = (p.refreshIdx + 1) % len(p.intensities)

			p.intensityMu.Lock()
			value := p.intensities[idx]
			p.intensityMu.Unlock()

			p.updateDriver(idx, value)
		}
	}
}

// updateDriver routes a new DAC level to one LED driver: disconnect
// the switch while the DAC settles, then select and reconnect.
func (p *RaspberryPiPlatform) updateDriver(idx, value int) {
	p.enablePin.High()
	p.writeDAC(value)
	for bit, pin := range p.selectPins {
		if idx&(1<<bit) != 0 {
			pin.High()
		} else {
			pin.Low()
		}
	}
	p.enablePin.Low()
}

// writeDAC transmits one 12 bit output code to the DAC. The command
// nibble selects the buffered, unity gain, active output.
func (p *RaspberryPiPlatform) writeDAC(value int) {
	if value < 0 {
		value = 0
	}
	if value > p.config.Hardware.DAC.MaxOutputCode {
		value = p.config.Hardware.DAC.MaxOutputCode
	}
	frame := []byte{0x30 | byte(value>>8)&0x0F, byte(value)}

	p.spiMutex.Lock()
	rpio.SpiChipSelect(spiSlaveDAC)
	rpio.SpiTransmit(frame...)
	p.spiMutex.Unlock()
}

// touchSensorHistory is the number of smoothed readings kept for
// diagnostics and the trigger check.
const touchSensorHistory = 500

// touchSensor smooths the raw ADC readings with a moving average so a
// single noisy sample cannot fake a touch, and keeps the smoothed
// readings in a bounded history whose tail feeds the trigger check.
type touchSensor struct {
	values   []int
	index    int
	sum      int
	capacity int
	history  deque.Deque[int]
}

func newTouchSensor(smoothing int) *touchSensor {
	return &touchSensor{
		values:   make([]int, smoothing),
		capacity: smoothing,
	}
}

func (s *touchSensor) smoothedValue(value int) int {
	oldValue := s.values[s.index]
	s.sum = s.sum - oldValue + value
	s.values[s.index] = value
	s.index = (s.index + 1) % s.capacity
	return s.sum / s.capacity
}

// record smooths one raw sample into the history, discarding the
// oldest reading once the history is full.
func (s *touchSensor) record(raw int) {
	s.history.PushBack(s.smoothedValue(raw))
	if s.history.Len() > touchSensorHistory {
		s.history.PopFront()
	}
}

// latest returns the newest smoothed reading. Only valid after at
// least one record call.
func (s *touchSensor) latest() int {
	return s.history.Back()
}

// touchDriver polls the touch sensor ADC and emits a trigger event
// whenever the newest smoothed reading in the history crosses the
// configured threshold.
func (p *RaspberryPiPlatform) touchDriver() {
	defer p.wg.Done()
	cfg := p.config.Hardware.Touch
	sensor := newTouchSensor(cfg.SmoothingSize)

	ticker := time.NewTicker(cfg.PollDelay)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			slog.Info("Ending touch sensor go-routine")
			return
		case <-ticker.C:
			sensor.record(p.readAdc(cfg.AdcChannel))
			if value := sensor.latest(); value > cfg.TriggerValue {
				select {
				case p.touchEvents <- util.NewTrigger("touch", value, time.Now()):
				case <-p.stopChan:
					slog.Info("Ending touch sensor go-routine")
					return
				}
			}
		}
	}
}

// readAdc reads one 10 bit sample from the given ADC channel.
func (p *RaspberryPiPlatform) readAdc(channel byte) int {
	buf := []byte{1, (8 + channel) << 4, 0}

	p.spiMutex.Lock()
	rpio.SpiChipSelect(spiSlaveADC)
	rpio.SpiExchange(buf)
	p.spiMutex.Unlock()

	return ((int(buf[1]) & 3) << 8) + int(buf[2])
}
