package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/flagx"
	"github.com/dmitrijs2005/remotehelp/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrClient string         `json:"endpoint_addr_client"`
	EndpointAddrTech   string         `json:"endpoint_addr_tech"`
	DatabaseDSN        string         `json:"database_dsn"`
	CertFile           string         `json:"cert_file"`
	KeyFile            string         `json:"key_file"`
	CAFile             string         `json:"ca_file"`
	MaxFrameSize       int64          `json:"max_frame_size"`
	IOTimeout          timex.Duration `json:"io_timeout"`
	IdleTimeout        timex.Duration `json:"idle_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrClient = c.EndpointAddrClient
	config.EndpointAddrTech = c.EndpointAddrTech
	config.DatabaseDSN = c.DatabaseDSN
	config.CertFile = c.CertFile
	config.KeyFile = c.KeyFile
	config.CAFile = c.CAFile
	config.MaxFrameSize = c.MaxFrameSize
	config.IOTimeout = time.Duration(c.IOTimeout.Duration)
	config.IdleTimeout = time.Duration(c.IdleTimeout.Duration)
}
