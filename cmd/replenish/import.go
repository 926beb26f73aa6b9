package main

import (
	"errors"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandflow/internal/app"
	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/pkg/logger"
)

func importCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load forecast and history exports into postgres",
		Flags: inputFlags(cfg),
		Action: func(c *cli.Context) error {
			application, err := app.New(c.Context, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			if application.Forecasts == nil {
				return errors.New("database is disabled, set DB_ENABLED=true")
			}

			bundle, err := loadBundle(c)
			if err != nil {
				return err
			}

			if err := application.Forecasts.SaveForecasts(c.Context, bundle.Forecasts, time.Now().UTC()); err != nil {
				return err
			}
			if len(bundle.History) > 0 {
				if err := application.Forecasts.SaveHistory(c.Context, bundle.History); err != nil {
					return err
				}
			}

			logger.Log.Info().
				Strs("files", bundle.Files).
				Int("forecast_series", len(bundle.Forecasts)).
				Int("history_series", len(bundle.History)).
				Msg("import complete")
			return nil
		},
	}
}
