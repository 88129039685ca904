package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:5556", "-t", "127.0.0.1:5557", "-d", "creds.db",
			"-r", "m.crt", "-k", "m.key", "-s", "ca.crt",
			"-m", "1048576", "-i", "10", "-e", "120",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrClient: "127.0.0.1:5556",
				EndpointAddrTech:   "127.0.0.1:5557",
				DatabaseDSN:        "creds.db",
				CertFile:           "m.crt",
				KeyFile:            "m.key",
				CAFile:             "ca.crt",
				MaxFrameSize:       1048576,
				IOTimeout:          10 * time.Second,
				IdleTimeout:        120 * time.Second,
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
