package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandflow/internal/app"
	"github.com/andresuchdata/demandflow/internal/config"
)

func runsCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show the latest recorded pipeline run",
		Action: func(c *cli.Context) error {
			application, err := app.New(c.Context, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			info, err := application.Service.LatestRun(c.Context)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
