// Package config handles configuration for the technician client binary,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the RemoteHelp technician client.
//
// Fields:
//   - Addr: endpoint to dial. A mediator technician endpoint when SessionID
//     is set, an agent's direct listener otherwise.
//   - SessionID: session to pair with via a mediator; empty means a direct
//     connection.
//   - CertFile / KeyFile / CAFile: TLS identity and trust anchor.
//   - MaxFrameSize: frame payload limit, bytes.
//   - IOTimeout: per-operation read/write deadline.
type Config struct {
	Addr         string
	SessionID    string
	CertFile     string
	KeyFile      string
	CAFile       string
	MaxFrameSize int64
	IOTimeout    time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = "127.0.0.1:5557"
	c.SessionID = ""
	c.CertFile = "certs/tech.crt"
	c.KeyFile = "certs/tech.key"
	c.CAFile = "certs/ca.crt"
	c.MaxFrameSize = 8 << 20
	c.IOTimeout = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
