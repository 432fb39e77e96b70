package dashboard

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// APIBaseEnv names the environment variable that overrides the upstream base URL.
const APIBaseEnv = "VISION_API_BASE"

// Config defines the runtime configuration for the dashboard server.
type Config struct {
	Addr              string
	APIBase           string
	CameraCount       int
	HistoryCapacity   int
	StrictPayload     bool
	AssetsDir         string
	KeepaliveInterval time.Duration
	ThumbnailWidth    int
	ThumbnailHeight   int
}

// DefaultConfig returns a config pointing at a local development producer.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		APIBase:           "http://localhost:8000",
		CameraCount:       6,
		HistoryCapacity:   500,
		KeepaliveInterval: 30 * time.Second,
		ThumbnailWidth:    120,
		ThumbnailHeight:   80,
	}
}

// LoadEnv applies environment overrides to cfg.
func LoadEnv(cfg Config) Config {
	if base := os.Getenv(APIBaseEnv); base != "" {
		cfg.APIBase = base
	}
	return cfg
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return fmt.Errorf("api base: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base %q must be an absolute http(s) URL", c.APIBase)
	}
	if c.CameraCount <= 0 {
		return fmt.Errorf("camera count must be positive, got %d", c.CameraCount)
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", c.HistoryCapacity)
	}
	if c.ThumbnailWidth <= 0 || c.ThumbnailHeight <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %dx%d", c.ThumbnailWidth, c.ThumbnailHeight)
	}
	return nil
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.APIBase == "" {
		c.APIBase = def.APIBase
	}
	if c.CameraCount <= 0 {
		c.CameraCount = def.CameraCount
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = def.HistoryCapacity
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = def.KeepaliveInterval
	}
	if c.ThumbnailWidth <= 0 {
		c.ThumbnailWidth = def.ThumbnailWidth
	}
	if c.ThumbnailHeight <= 0 {
		c.ThumbnailHeight = def.ThumbnailHeight
	}
	return c
}

// CameraNames returns the selectable cameras, "Camera 1" to "Camera n".
func CameraNames(n int) []string {
	names := make([]string, n)
	for i := range n {
		names[i] = fmt.Sprintf("Camera %d", i+1)
	}
	return names
}
