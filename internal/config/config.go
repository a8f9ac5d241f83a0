package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Panel struct {
	Rows       int  `yaml:"rows"`
	Cols       int  `yaml:"cols"`
	Chain      int  `yaml:"chain"`
	Parallel   int  `yaml:"parallel"`
	Serpentine bool `yaml:"serpentine"`
	Brightness int  `yaml:"brightness"` // 1..100
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0; empty picks the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
}

type Frames struct {
	Dir        string `yaml:"dir"`
	Ext        string `yaml:"ext"`
	IntervalMs int    `yaml:"interval_ms"`
	Loop       bool   `yaml:"loop"`
	Watch      bool   `yaml:"watch"`
}

type Web struct {
	Addr     string `yaml:"addr"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type Config struct {
	Driver string `yaml:"driver"` // "spi" | "term" | "none"
	Panel  Panel  `yaml:"panel"`
	SPI    SPI    `yaml:"spi,omitempty"`
	Frames Frames `yaml:"frames"`
	Web    Web    `yaml:"web"`

	DropPrivileges bool   `yaml:"drop_privileges"`
	DropUser       string `yaml:"drop_user,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
}

func Default() Config {
	return Config{
		Driver: "spi",
		Panel: Panel{
			Rows:       32,
			Cols:       32,
			Chain:      1,
			Parallel:   1,
			Brightness: 80,
		},
		SPI: SPI{SpeedHz: 2400000},
		Frames: Frames{
			Dir:        "frames",
			Ext:        ".png",
			IntervalMs: 33,
			Loop:       true,
			Watch:      true,
		},
		Web:            Web{Addr: ":8080"},
		DropPrivileges: true,
		DropUser:       "daemon",
		LogLevel:       "info",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	if c.Panel.Rows <= 0 || c.Panel.Cols <= 0 {
		return fmt.Errorf("config: invalid panel %dx%d", c.Panel.Cols, c.Panel.Rows)
	}
	if c.Panel.Chain <= 0 || c.Panel.Parallel <= 0 {
		return fmt.Errorf("config: invalid chain=%d parallel=%d", c.Panel.Chain, c.Panel.Parallel)
	}
	if c.Panel.Brightness < 1 {
		c.Panel.Brightness = 1
	}
	if c.Panel.Brightness > 100 {
		c.Panel.Brightness = 100
	}
	if c.Frames.Dir == "" {
		return fmt.Errorf("config: frames dir is required")
	}
	if c.Frames.IntervalMs <= 0 {
		c.Frames.IntervalMs = 33
	}
	switch c.Driver {
	case "spi", "term", "none":
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	return nil
}
