package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.EndpointAddrClient, ":5556")
	assert.Equal(t, c.EndpointAddrTech, ":5557")
	assert.Equal(t, c.DatabaseDSN, "remotehelp.db")
	assert.Equal(t, c.CertFile, "certs/mediator.crt")
	assert.Equal(t, c.KeyFile, "certs/mediator.key")
	assert.Equal(t, c.CAFile, "certs/ca.crt")
	assert.Equal(t, c.MaxFrameSize, int64(8<<20))
	assert.Equal(t, c.IOTimeout, 30*time.Second)
	assert.Equal(t, c.IdleTimeout, 5*time.Minute)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.EndpointAddrClient, ":5556")
	assert.Equal(t, c.EndpointAddrTech, ":5557")
	assert.Equal(t, c.DatabaseDSN, "remotehelp.db")
	assert.Equal(t, c.MaxFrameSize, int64(8<<20))
	assert.Equal(t, c.IOTimeout, 30*time.Second)
	assert.Equal(t, c.IdleTimeout, 5*time.Minute)
}
