package sdfblend

import (
	"errors"
	"fmt"

	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
	"github.com/gekko3d/sdfblend/sdfrt/rt/gpu"
)

// Config holds encoder, buffer and logging settings.
type Config struct {
	Encoding EncodingConfig `yaml:"encoding"`
	Buffers  BuffersConfig  `yaml:"buffers"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EncodingConfig must match what the shader expects.
type EncodingConfig struct {
	Order      string `yaml:"order"`       // "forward" or "reverse"
	RootParent uint32 `yaml:"root_parent"` // parent index written for the root
}

type BuffersConfig struct {
	InitialShapes     int `yaml:"initial_shapes"`
	InitialContainers int `yaml:"initial_containers"`
	MaxShapes         int `yaml:"max_shapes"`
	MaxContainers     int `yaml:"max_containers"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Prefix  string `yaml:"prefix"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	limits := gpu.DefaultLimits()
	return &Config{
		Encoding: EncodingConfig{
			Order:      "forward",
			RootParent: 0,
		},
		Buffers: BuffersConfig{
			InitialShapes:     limits.InitialShapes,
			InitialContainers: limits.InitialContainers,
			MaxShapes:         limits.MaxShapes,
			MaxContainers:     limits.MaxContainers,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Prefix: "sdfblend",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := encode.ParseOrder(c.Encoding.Order); err != nil {
		errs = append(errs, err)
	}
	b := c.Buffers
	if b.InitialShapes <= 0 || b.InitialContainers <= 0 {
		errs = append(errs, fmt.Errorf("initial buffer capacities must be positive, got %d shapes / %d containers", b.InitialShapes, b.InitialContainers))
	}
	if b.MaxShapes < b.InitialShapes {
		errs = append(errs, fmt.Errorf("max_shapes %d below initial_shapes %d", b.MaxShapes, b.InitialShapes))
	}
	if b.MaxContainers < b.InitialContainers {
		errs = append(errs, fmt.Errorf("max_containers %d below initial_containers %d", b.MaxContainers, b.InitialContainers))
	}
	return errors.Join(errs...)
}

// EncodeOptions converts the encoding section. Call Validate first.
func (c *Config) EncodeOptions() encode.Options {
	order, _ := encode.ParseOrder(c.Encoding.Order)
	return encode.Options{Order: order, RootParent: c.Encoding.RootParent}
}

func (c *Config) Limits() gpu.Limits {
	return gpu.Limits{
		InitialShapes:     c.Buffers.InitialShapes,
		InitialContainers: c.Buffers.InitialContainers,
		MaxShapes:         c.Buffers.MaxShapes,
		MaxContainers:     c.Buffers.MaxContainers,
	}
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger() *DefaultLogger {
	var file LogFileConfig
	if c.Logging.LogFile != "" {
		file = DefaultLogFileConfig(c.Logging.LogFile)
	}
	return NewDefaultLogger(c.Logging.Prefix, c.Logging.Level, file)
}
