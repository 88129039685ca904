package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/flagx"
)

// parseFlags populates selected agent Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-o string   mode: "mediator" or "direct"
//	-a string   mediator client endpoint address
//	-l string   direct listener bind address
//	-n string   requested session id (empty: mediator assigns)
//	-d string   credential store DSN (direct mode)
//	-r string   TLS certificate file
//	-k string   TLS key file
//	-s string   CA certificate file for peer verification
//	-m int      maximum frame payload, bytes
//	-i int      transport I/O timeout, seconds
//	-w int      mediator reconnect delay, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in seconds and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-o", "-a", "-l", "-n", "-d", "-r", "-k", "-s", "-m", "-i", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Mode, "o", config.Mode, "mode (mediator or direct)")
	fs.StringVar(&config.MediatorAddr, "a", config.MediatorAddr, "mediator client endpoint address")
	fs.StringVar(&config.DirectAddr, "l", config.DirectAddr, "direct listener address")
	fs.StringVar(&config.SessionID, "n", config.SessionID, "requested session id")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "credential store DSN")
	fs.StringVar(&config.CertFile, "r", config.CertFile, "TLS certificate file")
	fs.StringVar(&config.KeyFile, "k", config.KeyFile, "TLS key file")
	fs.StringVar(&config.CAFile, "s", config.CAFile, "CA certificate file")
	fs.Int64Var(&config.MaxFrameSize, "m", config.MaxFrameSize, "max frame payload (bytes)")

	ioTimeout := fs.Int("i", int(config.IOTimeout.Seconds()), "io_timeout (in seconds)")
	reconnectDelay := fs.Int("w", int(config.ReconnectDelay.Seconds()), "reconnect_delay (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.IOTimeout = time.Duration(*ioTimeout) * time.Second
	config.ReconnectDelay = time.Duration(*reconnectDelay) * time.Second
}
