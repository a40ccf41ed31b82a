package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CONFILE is the default config file name.
const CONFILE = "config.yml"

// FireflyConfig holds the engine parameters: how many fireflies live
// in the jar, how often they are stepped, and the bounds of the
// per-flash random draws.
type FireflyConfig struct {
	Count            int           `yaml:"Count" json:"Count"`
	TickInterval     time.Duration `yaml:"TickInterval" json:"TickInterval"`
	DelayMin         time.Duration `yaml:"DelayMin" json:"DelayMin"`
	DelayMax         time.Duration `yaml:"DelayMax" json:"DelayMax"`
	SmoothingMin     int           `yaml:"SmoothingMin" json:"SmoothingMin"`
	SmoothingMax     int           `yaml:"SmoothingMax" json:"SmoothingMax"`
	ScaleNumerator   int           `yaml:"ScaleNumerator" json:"ScaleNumerator"`
	ScaleDenominator int           `yaml:"ScaleDenominator" json:"ScaleDenominator"`
}

// NightWindowConfig restricts flashing to the hours between sunset
// and sunrise at the given location.
type NightWindowConfig struct {
	Enabled   bool    `yaml:"Enabled" json:"Enabled"`
	Latitude  float64 `yaml:"Latitude" json:"Latitude"`
	Longitude float64 `yaml:"Longitude" json:"Longitude"`
}

// DACConfig describes the analog switch that multiplexes the single
// DAC output onto the individual LED drivers.
type DACConfig struct {
	SelectGPIO    []int         `yaml:"SelectGPIO"`
	EnableGPIO    int           `yaml:"EnableGPIO"`
	RefreshDelay  time.Duration `yaml:"RefreshDelay"`
	MaxOutputCode int           `yaml:"MaxOutputCode"`
}

// TouchConfig describes the capacitive touch sensor on the jar lid.
type TouchConfig struct {
	AdcChannel    byte          `yaml:"AdcChannel"`
	TriggerValue  int           `yaml:"TriggerValue"`
	SmoothingSize int           `yaml:"SmoothingSize"`
	PollDelay     time.Duration `yaml:"PollDelay"`
}

// PowerHoldConfig describes the self-hold power line and the
// inactivity timeout after which it is released.
type PowerHoldConfig struct {
	GPIO    int           `yaml:"GPIO"`
	Timeout time.Duration `yaml:"Timeout"`
}

type HardwareConfig struct {
	SPIFrequency int             `yaml:"SPIFrequency"`
	DAC          DACConfig       `yaml:"DAC"`
	Touch        TouchConfig     `yaml:"Touch"`
	PowerHold    PowerHoldConfig `yaml:"PowerHold"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type APIConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Listen  string `yaml:"Listen"`
}

type Config struct {
	RealHW     bool   `yaml:"-" json:"-"`
	Configfile string `yaml:"-" json:"-"`

	Firefly     FireflyConfig     `yaml:"Firefly" json:"Firefly"`
	NightWindow NightWindowConfig `yaml:"NightWindow" json:"NightWindow"`
	Hardware    HardwareConfig    `yaml:"Hardware" json:"-"`
	Logging     LoggingConfig     `yaml:"Logging" json:"-"`
	API         APIConfig         `yaml:"API" json:"-"`
}

// ReadConfig reads and validates the config file. realhw selects the
// Raspberry Pi platform instead of the TUI simulation and is recorded
// in the returned config.
func ReadConfig(cfile string, realhw bool) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := &Config{}
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}

	conf.RealHW = realhw
	conf.Configfile = cfile

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the configuration for values the engine or the
// platforms cannot work with.
func (c *Config) Validate() error {
	ff := c.Firefly
	if ff.Count < 1 {
		return fmt.Errorf("Firefly.Count must be at least 1, got %d", ff.Count)
	}
	if ff.TickInterval < time.Millisecond {
		return fmt.Errorf("Firefly.TickInterval must be at least 1ms, got %s", ff.TickInterval)
	}
	if ff.DelayMin <= 0 || ff.DelayMax < ff.DelayMin {
		return fmt.Errorf("Firefly delay bounds must satisfy 0 < DelayMin <= DelayMax, got %s..%s",
			ff.DelayMin, ff.DelayMax)
	}
	if ff.SmoothingMin < 1 || ff.SmoothingMax < ff.SmoothingMin {
		return fmt.Errorf("Firefly smoothing bounds must satisfy 1 <= SmoothingMin <= SmoothingMax, got %d..%d",
			ff.SmoothingMin, ff.SmoothingMax)
	}
	if ff.ScaleNumerator < 0 || ff.ScaleDenominator < 1 {
		return fmt.Errorf("Firefly scale must be a non-negative fraction with positive denominator, got %d/%d",
			ff.ScaleNumerator, ff.ScaleDenominator)
	}

	if c.NightWindow.Enabled {
		if c.NightWindow.Latitude < -90 || c.NightWindow.Latitude > 90 {
			return fmt.Errorf("NightWindow.Latitude must be between -90 and 90, got %f", c.NightWindow.Latitude)
		}
		if c.NightWindow.Longitude < -180 || c.NightWindow.Longitude > 180 {
			return fmt.Errorf("NightWindow.Longitude must be between -180 and 180, got %f", c.NightWindow.Longitude)
		}
	}

	if c.RealHW {
		hw := c.Hardware
		if hw.SPIFrequency <= 0 {
			return fmt.Errorf("Hardware.SPIFrequency must be positive, got %d", hw.SPIFrequency)
		}
		if len(hw.DAC.SelectGPIO) == 0 {
			return fmt.Errorf("Hardware.DAC.SelectGPIO must name at least one select pin")
		}
		if c.Firefly.Count > 1<<len(hw.DAC.SelectGPIO) {
			return fmt.Errorf("%d select pins can address at most %d drivers, Firefly.Count is %d",
				len(hw.DAC.SelectGPIO), 1<<len(hw.DAC.SelectGPIO), c.Firefly.Count)
		}
		if hw.DAC.RefreshDelay <= 0 {
			return fmt.Errorf("Hardware.DAC.RefreshDelay must be positive, got %s", hw.DAC.RefreshDelay)
		}
		if hw.DAC.MaxOutputCode <= 0 || hw.DAC.MaxOutputCode > 4095 {
			return fmt.Errorf("Hardware.DAC.MaxOutputCode must be within the 12 bit DAC range, got %d", hw.DAC.MaxOutputCode)
		}
		if hw.Touch.SmoothingSize < 1 {
			return fmt.Errorf("Hardware.Touch.SmoothingSize must be at least 1, got %d", hw.Touch.SmoothingSize)
		}
		if hw.Touch.PollDelay <= 0 {
			return fmt.Errorf("Hardware.Touch.PollDelay must be positive, got %s", hw.Touch.PollDelay)
		}
		if hw.PowerHold.Timeout < 0 {
			return fmt.Errorf("Hardware.PowerHold.Timeout must not be negative, got %s", hw.PowerHold.Timeout)
		}
	}

	return nil
}
