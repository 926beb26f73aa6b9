package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandflow/internal/app"
	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/internal/domain"
	"github.com/andresuchdata/demandflow/internal/pipeline"
	"github.com/andresuchdata/demandflow/internal/pipeline/replenishment"
	"github.com/andresuchdata/demandflow/internal/service"
	"github.com/andresuchdata/demandflow/internal/source"
	"github.com/andresuchdata/demandflow/pkg/logger"
)

const (
	sourceCSV      = "csv"
	sourcePostgres = "postgres"
)

func inputFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Usage:   "Directory of forecast_*/history_* CSV or XLSX exports",
			Value:   cfg.App.DataDir,
			EnvVars: []string{"APP_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:  "forecasts",
			Usage: "Single forecast file, overrides --dir",
		},
		&cli.StringFlag{
			Name:  "history",
			Usage: "Single demand history file, used with --forecasts",
		},
	}
}

func analyzeCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run the replenishment engine and write reports",
		Flags: append(inputFlags(cfg),
			&cli.StringFlag{
				Name:  "source",
				Usage: "Where series come from: csv or postgres",
				Value: sourceCSV,
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Directory for the suggestions CSV and JSON reports",
				Value: cfg.App.OutputDir,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run summary as JSON instead of a table",
			},
		),
		Action: func(c *cli.Context) error {
			cfg.App.OutputDir = c.String("output")

			application, err := app.New(c.Context, cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			var result *pipeline.RunResult
			switch c.String("source") {
			case sourcePostgres:
				result, err = application.Service.Refresh(c.Context)
			case sourceCSV:
				var bundle *source.Bundle
				bundle, err = loadBundle(c)
				if err != nil {
					return err
				}
				result, err = application.Service.Analyze(c.Context, service.AnalyzeInput{
					Forecasts: bundle.Forecasts,
					History:   bundle.History,
					Source:    sourceCSV,
				})
			default:
				return fmt.Errorf("unknown source %q, expected csv or postgres", c.String("source"))
			}
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					RunID   string                  `json:"run_id"`
					Summary domain.AnalysisSummary  `json:"summary"`
					Skipped []domain.SkippedProduct `json:"skipped"`
				}{result.RunID, result.Summary, result.Skipped})
			}
			return printResult(result)
		},
	}
}

func loadBundle(c *cli.Context) (*source.Bundle, error) {
	if path := c.String("forecasts"); path != "" {
		forecasts, err := source.LoadForecastFile(path)
		if err != nil {
			return nil, err
		}
		bundle := &source.Bundle{Forecasts: forecasts, Files: []string{path}}
		if hist := c.String("history"); hist != "" {
			history, err := source.LoadHistoryFile(hist)
			if err != nil {
				return nil, err
			}
			bundle.History = history
			bundle.Files = append(bundle.Files, hist)
		}
		return bundle, nil
	}

	bundle, err := source.LoadDir(c.String("dir"))
	if err != nil {
		return nil, err
	}
	if len(bundle.Forecasts) == 0 {
		return nil, fmt.Errorf("no forecast files found in %s", c.String("dir"))
	}
	return bundle, nil
}

func printResult(result *pipeline.RunResult) error {
	s := result.Summary
	logger.Log.Info().
		Str("run_id", result.RunID).
		Int("products", s.TotalProducts).
		Int("high_priority", s.HighPriorityProducts).
		Int("skipped", s.SkippedProducts).
		Float64("avg_mape", s.AverageMAPE).
		Msg("analysis complete")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tURGENCY\tSCORE\tORDER QTY\tACTION\tTIMING")
	for _, sug := range replenishment.TopPriority(result.Suggestions(), -1) {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.0f\t%s\t%s\n",
			sug.ProductID, sug.Urgency, sug.PriorityScore, sug.SuggestedOrderQuantity, sug.ActionRequired, sug.OptimalOrderTiming)
	}
	return w.Flush()
}
