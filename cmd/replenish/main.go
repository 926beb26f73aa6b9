package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)

	cliApp := &cli.App{
		Name:  "replenish",
		Usage: "Turn demand forecasts into reorder suggestions",
		Commands: []*cli.Command{
			analyzeCommand(cfg),
			importCommand(cfg),
			pullCommand(cfg),
			runsCommand(cfg),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("replenish failed")
	}
}
