package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/flagx"
)

// parseFlags populates selected mediator Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   client endpoint bind address (e.g., ":5556")
//	-t string   technician endpoint bind address (e.g., ":5557")
//	-d string   credential store DSN (postgres:// or bbolt file path)
//	-r string   TLS certificate file
//	-k string   TLS key file
//	-s string   CA certificate file for peer verification
//	-m int      maximum frame payload, bytes
//	-i int      transport I/O timeout, seconds
//	-e int      unpaired session idle timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in seconds and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-r", "-k", "-s", "-m", "-i", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrClient, "a", config.EndpointAddrClient, "client endpoint address")
	fs.StringVar(&config.EndpointAddrTech, "t", config.EndpointAddrTech, "technician endpoint address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "credential store DSN")
	fs.StringVar(&config.CertFile, "r", config.CertFile, "TLS certificate file")
	fs.StringVar(&config.KeyFile, "k", config.KeyFile, "TLS key file")
	fs.StringVar(&config.CAFile, "s", config.CAFile, "CA certificate file")
	fs.Int64Var(&config.MaxFrameSize, "m", config.MaxFrameSize, "max frame payload (bytes)")

	ioTimeout := fs.Int("i", int(config.IOTimeout.Seconds()), "io_timeout (in seconds)")
	idleTimeout := fs.Int("e", int(config.IdleTimeout.Seconds()), "idle_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.IOTimeout = time.Duration(*ioTimeout) * time.Second
	config.IdleTimeout = time.Duration(*idleTimeout) * time.Second
}
