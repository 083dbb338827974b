package main

import (
	"context"
	"log"
	"os"

	"github.com/mpodriezov/boardpack/internal/buildinfo"
	"github.com/mpodriezov/boardpack/internal/client/cli"
	"github.com/mpodriezov/boardpack/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
