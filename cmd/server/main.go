package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/planadmin/internal/buildinfo"
	"github.com/dmitrijs2005/planadmin/internal/logging"
	"github.com/dmitrijs2005/planadmin/internal/server"
	"github.com/dmitrijs2005/planadmin/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stdout, "json", cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
