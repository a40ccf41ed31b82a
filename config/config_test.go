package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const validFirefly = `
Firefly:
  Count: 8
  TickInterval: 8ms
  DelayMin: 1s
  DelayMax: 12s
  SmoothingMin: 50
  SmoothingMax: 500
  ScaleNumerator: 150
  ScaleDenominator: 1000
`

const validNightWindow = `
NightWindow:
  Enabled: false
  Latitude: 0
  Longitude: 0
`

const validHardware = `
Hardware:
  SPIFrequency: 1000000
  DAC:
    SelectGPIO: [17, 27, 22]
    EnableGPIO: 23
    RefreshDelay: 1ms
    MaxOutputCode: 4095
  Touch:
    AdcChannel: 0
    TriggerValue: 600
    SmoothingSize: 10
    PollDelay: 20ms
  PowerHold:
    GPIO: 24
    Timeout: 15m
`

const validLogging = `
Logging:
  TUI:
    Level: "DEBUG"
    Format: "text"
    File: "/tmp/fireflyjar-tui.log"
  HW:
    Level: "WARN"
    Format: "json"
    File: "/var/log/fireflyjar-hw.log"
`

const validAPI = `
API:
  Enabled: false
  Listen: "localhost:8080"
`

func getBaseConfig() string {
	return validFirefly + validNightWindow + validHardware + validLogging + validAPI
}

func createConfigFile(t *testing.T, configData string) string {
	tempDir, err := os.MkdirTemp("", "fireflyjar-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	configFile := filepath.Join(tempDir, "config.yml")
	err = os.WriteFile(configFile, []byte(configData), 0o644)
	if err != nil {
		t.Fatalf("Failed to write dummy config file: %v", err)
	}
	return configFile
}

func TestReadConfig(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig())

	conf, err := ReadConfig(configFile, false)
	assert.NoError(t, err, "ReadConfig should not return an error")

	assert.Equal(t, 8, conf.Firefly.Count, "Firefly.Count should be 8")
	assert.Equal(t, 8*time.Millisecond, conf.Firefly.TickInterval, "Firefly.TickInterval should be 8ms")
	assert.Equal(t, 1*time.Second, conf.Firefly.DelayMin, "Firefly.DelayMin should be 1s")
	assert.Equal(t, 12*time.Second, conf.Firefly.DelayMax, "Firefly.DelayMax should be 12s")
	assert.Equal(t, 50, conf.Firefly.SmoothingMin, "Firefly.SmoothingMin should be 50")
	assert.Equal(t, 500, conf.Firefly.SmoothingMax, "Firefly.SmoothingMax should be 500")
	assert.Equal(t, 150, conf.Firefly.ScaleNumerator, "Firefly.ScaleNumerator should be 150")
	assert.Equal(t, 1000, conf.Firefly.ScaleDenominator, "Firefly.ScaleDenominator should be 1000")

	assert.False(t, conf.RealHW, "RealHW should reflect the flag")
	assert.Equal(t, configFile, conf.Configfile, "Configfile should record the file path")

	assert.Equal(t, "DEBUG", conf.Logging.TUI.Level, "Logging.TUI.Level should be DEBUG")
	assert.Equal(t, "text", conf.Logging.TUI.Format, "Logging.TUI.Format should be text")
	assert.Equal(t, "WARN", conf.Logging.HW.Level, "Logging.HW.Level should be WARN")
	assert.Equal(t, "json", conf.Logging.HW.Format, "Logging.HW.Format should be json")
}

func TestReadConfig_RealHW(t *testing.T) {
	configFile := createConfigFile(t, getBaseConfig())

	conf, err := ReadConfig(configFile, true)
	assert.NoError(t, err, "ReadConfig should not return an error")
	assert.True(t, conf.RealHW, "RealHW should be true")
	assert.Equal(t, []int{17, 27, 22}, conf.Hardware.DAC.SelectGPIO)
	assert.Equal(t, time.Millisecond, conf.Hardware.DAC.RefreshDelay)
	assert.Equal(t, 15*time.Minute, conf.Hardware.PowerHold.Timeout)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig("/nonexistent/config.yml", false)
	assert.Error(t, err, "ReadConfig should fail on a missing file")
	assert.Contains(t, err.Error(), "can't open config file")
}

func TestReadConfig_InvalidCount(t *testing.T) {
	configData := strings.Replace(getBaseConfig(), "Count: 8", "Count: 0", 1)
	configFile := createConfigFile(t, configData)

	_, err := ReadConfig(configFile, false)
	assert.Error(t, err, "ReadConfig should return an error")
	assert.Contains(t, err.Error(), "Firefly.Count must be at least 1")
}

func TestReadConfig_DelayBoundsSwapped(t *testing.T) {
	configData := strings.Replace(getBaseConfig(), "DelayMax: 12s", "DelayMax: 500ms", 1)
	configFile := createConfigFile(t, configData)

	_, err := ReadConfig(configFile, false)
	assert.Error(t, err, "ReadConfig should return an error")
	assert.Contains(t, err.Error(), "DelayMin <= DelayMax")
}

func TestReadConfig_InvalidSmoothing(t *testing.T) {
	configData := strings.Replace(getBaseConfig(), "SmoothingMin: 50", "SmoothingMin: 0", 1)
	configFile := createConfigFile(t, configData)

	_, err := ReadConfig(configFile, false)
	assert.Error(t, err, "ReadConfig should return an error")
	assert.Contains(t, err.Error(), "SmoothingMin")
}

func TestReadConfig_TooFewSelectPins(t *testing.T) {
	// With two select pins only four drivers are addressable.
	configData := strings.Replace(getBaseConfig(), "SelectGPIO: [17, 27, 22]", "SelectGPIO: [17, 27]", 1)
	configFile := createConfigFile(t, configData)

	// Hardware is only validated when running against real hardware.
	_, err := ReadConfig(configFile, false)
	assert.NoError(t, err, "Hardware validation should be skipped in simulation")

	_, err = ReadConfig(configFile, true)
	assert.Error(t, err, "ReadConfig should return an error on real hardware")
	assert.Contains(t, err.Error(), "can address at most")
}

func TestReadConfig_InvalidLatitude(t *testing.T) {
	configData := strings.Replace(getBaseConfig(), "Enabled: false\n  Latitude: 0", "Enabled: true\n  Latitude: 91", 1)
	configFile := createConfigFile(t, configData)

	_, err := ReadConfig(configFile, false)
	assert.Error(t, err, "ReadConfig should return an error")
	assert.Contains(t, err.Error(), "Latitude must be between -90 and 90")
}
