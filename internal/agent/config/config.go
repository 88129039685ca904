// Package config handles configuration for the agent component, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the RemoteHelp agent.
//
// Fields:
//   - Mode: "mediator" registers with a mediator and waits for pairings;
//     "direct" opens a listening endpoint technicians connect to straight.
//     There is no automatic failover between the two.
//   - MediatorAddr: mediator client endpoint (mediator mode).
//   - DirectAddr: bind address for the direct-connect listener (direct mode).
//   - SessionID: requested session id; empty lets the mediator assign one.
//   - DatabaseDSN: credential store for the direct path. A postgres:// DSN
//     selects PostgreSQL; anything else is a bbolt file path.
//   - CertFile / KeyFile / CAFile: TLS identity and trust anchor.
//   - MaxFrameSize: frame payload limit, bytes.
//   - IOTimeout: per-operation read/write deadline.
//   - ReconnectDelay: pause before re-dialing the mediator after a
//     connection failure (mediator mode).
type Config struct {
	Mode           string
	MediatorAddr   string
	DirectAddr     string
	SessionID      string
	DatabaseDSN    string
	CertFile       string
	KeyFile        string
	CAFile         string
	MaxFrameSize   int64
	IOTimeout      time.Duration
	ReconnectDelay time.Duration
}

const (
	ModeMediator = "mediator"
	ModeDirect   = "direct"
)

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Mode = ModeMediator
	c.MediatorAddr = "127.0.0.1:5556"
	c.DirectAddr = ":5555"
	c.SessionID = ""
	c.DatabaseDSN = "agent.db"
	c.CertFile = "certs/agent.crt"
	c.KeyFile = "certs/agent.key"
	c.CAFile = "certs/ca.crt"
	c.MaxFrameSize = 8 << 20
	c.IOTimeout = 30 * time.Second
	c.ReconnectDelay = 5 * time.Second
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
