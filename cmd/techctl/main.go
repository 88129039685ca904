package main

import (
	"bufio"
	"context"
	"log"
	"net"
	"os"

	"github.com/dmitrijs2005/remotehelp/internal/cli"
	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/techclient"
	"github.com/dmitrijs2005/remotehelp/internal/techclient/config"
	"github.com/dmitrijs2005/remotehelp/internal/tlsx"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	reader := bufio.NewReader(os.Stdin)
	username, err := cli.GetSimpleText(reader, "Username", os.Stdout)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	password, err := cli.GetPassword(os.Stdout)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer common.WipeByteArray(password)

	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		log.Printf("bad address %q: %v", cfg.Addr, err)
		return
	}
	tlsConf, err := tlsx.ClientConfig(cfg.CertFile, cfg.KeyFile, cfg.CAFile, host)
	if err != nil {
		log.Printf("tls init error: %v", err)
		return
	}

	opts := wire.Options{MaxFrameSize: uint32(cfg.MaxFrameSize), IOTimeout: cfg.IOTimeout}
	c, err := techclient.Connect(ctx, cfg.Addr, tlsConf, opts)
	if err != nil {
		log.Printf("connect failed: %v", err)
		return
	}
	defer c.Close()

	if cfg.SessionID != "" {
		err = c.PairSession(cfg.SessionID, username, string(password))
	} else {
		err = c.PairDirect(username, string(password))
	}
	if err != nil {
		log.Printf("pairing failed: %v", err)
		return
	}
	log.Printf("paired, streaming (stdin lines are sent as input events)")

	// Stdin lines become input-event payloads.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := c.SendInput([]byte(scanner.Text())); err != nil {
				return
			}
		}
	}()

	for {
		f, err := c.Receive(ctx)
		if err != nil {
			log.Printf("session ended: %v", err)
			return
		}
		switch f.Type {
		case wire.FrameScreenData:
			log.Printf("screen frame: %d bytes", len(f.Payload))
		case wire.FrameControl:
			log.Printf("control frame: %d bytes", len(f.Payload))
		}
	}
}
