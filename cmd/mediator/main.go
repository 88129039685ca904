package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/remotehelp/internal/mediator"
	"github.com/dmitrijs2005/remotehelp/internal/mediator/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := mediator.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
