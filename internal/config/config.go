package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Authorization Authorization
	Source        Source
	Server        Server
}

type Authorization struct {
	Cookie string `env:"AUTH_COOKIE"`
	Token  string `env:"AUTH_TOKEN"`
}

type Source struct {
	// Backend is one of synthetic, snapshot or opencv.
	Backend        string   `env:"SOURCE" envDefault:"synthetic"`
	SnapshotURLs   []string `env:"SNAPSHOT_URLS" envSeparator:","`
	OpenCVDevices  []string `env:"OPENCV_DEVICES" envSeparator:","`
	FetchFPS       int      `env:"FETCH_FPS" envDefault:"30"`
	SyntheticSize  string   `env:"SYNTHETIC_SIZE" envDefault:"160x120"`
	RequestTimeout int      `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"15"`
}

type Server struct {
	Port        string `env:"PORT" envDefault:"8081"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	FPS         int    `env:"FPS" envDefault:"10"`
	JPEGQuality int    `env:"JPEG_QUALITY" envDefault:"80"`
	Window      bool   `env:"WINDOW" envDefault:"false"`
}

// Camera is one entry of SNAPSHOT_URLS, written as name=kind=url.
type Camera struct {
	Name string
	Kind string
	URL  string
}

// Device is one entry of OPENCV_DEVICES, written as index=kind.
type Device struct {
	Index int
	Kind  string
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Source.Backend {
	case "synthetic", "snapshot", "opencv":
	default:
		return fmt.Errorf("unknown SOURCE %q", c.Source.Backend)
	}
	if c.Server.FPS <= 0 {
		return fmt.Errorf("FPS must be positive, got %d", c.Server.FPS)
	}
	if c.Source.FetchFPS <= 0 {
		return fmt.Errorf("FETCH_FPS must be positive, got %d", c.Source.FetchFPS)
	}
	if c.Server.JPEGQuality < 1 || c.Server.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1..100, got %d", c.Server.JPEGQuality)
	}
	if _, _, err := c.Source.Size(); err != nil {
		return err
	}
	if _, err := c.Source.Cameras(); err != nil {
		return err
	}
	if _, err := c.Source.Devices(); err != nil {
		return err
	}
	return nil
}

// Size parses SYNTHETIC_SIZE.
func (s Source) Size() (width, height int, err error) {
	w, h, ok := strings.Cut(s.SyntheticSize, "x")
	if ok {
		width, err = strconv.Atoi(w)
		if err == nil {
			height, err = strconv.Atoi(h)
		}
	}
	if !ok || err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid SYNTHETIC_SIZE %q, want WIDTHxHEIGHT", s.SyntheticSize)
	}
	return width, height, nil
}

func (s Source) Cameras() ([]Camera, error) {
	cameras := make([]Camera, 0, len(s.SnapshotURLs))
	for _, entry := range s.SnapshotURLs {
		parts := strings.SplitN(strings.TrimSpace(entry), "=", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid SNAPSHOT_URLS entry %q, want name=kind=url", entry)
		}
		cameras = append(cameras, Camera{Name: parts[0], Kind: parts[1], URL: parts[2]})
	}
	return cameras, nil
}

func (s Source) Devices() ([]Device, error) {
	devices := make([]Device, 0, len(s.OpenCVDevices))
	for _, entry := range s.OpenCVDevices {
		idx, kind, ok := strings.Cut(strings.TrimSpace(entry), "=")
		index, err := strconv.Atoi(idx)
		if !ok || err != nil || index < 0 {
			return nil, fmt.Errorf("invalid OPENCV_DEVICES entry %q, want index=kind", entry)
		}
		devices = append(devices, Device{Index: index, Kind: kind})
	}
	return devices, nil
}
