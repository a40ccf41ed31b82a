package config

// RuntimeConfig defines the subset of the configuration that can be
// safely modified at runtime through the HTTP API. It excludes
// hardware-specific and other sensitive settings.
type RuntimeConfig struct {
	Firefly     FireflyConfig     `yaml:"Firefly" json:"Firefly"`
	NightWindow NightWindowConfig `yaml:"NightWindow" json:"NightWindow"`
}
