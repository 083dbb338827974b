package config

import "time"

// Config holds runtime settings for the BoardPack desk CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the BoardPack API (e.g., "http://127.0.0.1:8080").
//   - DataDir: directory holding the local staging database.
//   - MaxStoreBytes: capacity of the local file store; Save refuses to exceed it.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerEndpointAddr  string
	DataDir             string
	MaxStoreBytes       int64
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DataDir = "."
	c.MaxStoreBytes = 256 << 20
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
