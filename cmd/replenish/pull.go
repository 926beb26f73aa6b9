package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandflow/internal/config"
	"github.com/andresuchdata/demandflow/internal/drive"
	"github.com/andresuchdata/demandflow/internal/storage"
	"github.com/andresuchdata/demandflow/pkg/logger"
)

func pullCommand(cfg *config.Config) *cli.Command {
	destFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "dest",
			Usage: "Local directory to download into",
			Value: cfg.App.DataDir,
		}
	}

	return &cli.Command{
		Name:  "pull",
		Usage: "Download forecast exports from a remote source",
		Subcommands: []*cli.Command{
			{
				Name:  "drive",
				Usage: "Download CSV/XLSX files from a Google Drive folder",
				Flags: []cli.Flag{
					destFlag(),
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Drive folder ID",
						Value:   cfg.Drive.FolderID,
						EnvVars: []string{"FORECAST_DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:  "folder-path",
						Usage: "Drive folder path from the root, used when no folder ID is given",
					},
				},
				Action: func(c *cli.Context) error {
					if cfg.Drive.CredentialsJSON == "" {
						return errors.New("GOOGLE_DRIVE_CREDENTIALS_JSON is not set")
					}
					srv, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
					if err != nil {
						return err
					}

					folderID := c.String("folder-id")
					if folderID == "" {
						folderID, err = srv.FindFolderByPath(c.Context, c.String("folder-path"))
						if err != nil {
							return err
						}
					}

					paths, err := drive.NewDownloader(srv).DownloadFolderCSV(c.Context, drive.DownloadOptions{
						FolderID:    folderID,
						DownloadDir: c.String("dest"),
					})
					if err != nil {
						return err
					}
					logger.Log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("drive pull complete")
					return nil
				},
			},
			{
				Name:  "s3",
				Usage: "Download CSV/XLSX objects under a prefix of the configured bucket",
				Flags: []cli.Flag{
					destFlag(),
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix",
						Value: "forecasts/",
					},
				},
				Action: func(c *cli.Context) error {
					store, err := storage.NewMinioClient(cfg.Storage)
					if err != nil {
						return err
					}

					paths, err := storage.DownloadPrefix(c.Context, store, c.String("prefix"), c.String("dest"))
					if err != nil {
						return err
					}
					logger.Log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("storage pull complete")
					return nil
				},
			},
		},
	}
}
