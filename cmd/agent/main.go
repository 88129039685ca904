package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/remotehelp/internal/agent"
	"github.com/dmitrijs2005/remotehelp/internal/agent/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	// The stock binary carries no capture or input module; deployments
	// embed this package and supply their own collaborators.
	app, err := agent.NewApp(cfg, agent.NopScreenSource{}, agent.DiscardInputSink{})

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
