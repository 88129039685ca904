// Package config handles configuration for the mediator component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the RemoteHelp mediator.
//
// Fields:
//   - EndpointAddrClient: bind address for the client (agent) endpoint.
//   - EndpointAddrTech: bind address for the technician endpoint.
//   - DatabaseDSN: credential store DSN. A postgres:// DSN selects the
//     PostgreSQL repository; anything else is treated as a bbolt file path.
//   - CertFile / KeyFile / CAFile: TLS identity and the CA that peer
//     certificates must chain to.
//   - MaxFrameSize: relay frame payload limit, bytes.
//   - IOTimeout: per-operation read/write deadline on every transport.
//   - IdleTimeout: how long an unpaired session may sit before the reaper
//     reclaims it.
type Config struct {
	EndpointAddrClient string
	EndpointAddrTech   string
	DatabaseDSN        string
	CertFile           string
	KeyFile            string
	CAFile             string
	MaxFrameSize       int64
	IOTimeout          time.Duration
	IdleTimeout        time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrClient = ":5556"
	c.EndpointAddrTech = ":5557"
	c.DatabaseDSN = "remotehelp.db"
	c.CertFile = "certs/mediator.crt"
	c.KeyFile = "certs/mediator.key"
	c.CAFile = "certs/ca.crt"
	c.MaxFrameSize = 8 << 20
	c.IOTimeout = 30 * time.Second
	c.IdleTimeout = 5 * time.Minute
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
