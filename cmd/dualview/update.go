package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"dualview/internal/app"
	"dualview/internal/config"
	"dualview/internal/updater"

	"github.com/spf13/cobra"
)

func init() {
	cmdUpdate.AddCommand(cmdUpdateCheck)
	rootCmd.AddCommand(cmdUpdate)
}

var cmdUpdate = &cobra.Command{
	Use:   "update",
	Short: "Inspect the release feed",
}

var cmdUpdateCheck = &cobra.Command{
	Use:   "check",
	Short: "Check the release feed once without downloading",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		log, logFile, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer logFile.Close()

		client, err := app.NewUpdateClient(cfg, log)
		if err != nil {
			return err
		}
		if client == nil {
			return errors.New("no update feed configured (set update.feed_url or DUALVIEW_FEED_URL)")
		}

		client.SetAutoDownload(false)
		client.SetAutoInstallOnAppQuit(false)
		client.OnEvent(func(ev updater.Event) {
			switch ev.Type {
			case updater.EventAvailable:
				fmt.Fprintf(os.Stdout, "Update available: %s -> %s\n", app.Version, ev.Info.Version)
			case updater.EventNotAvailable:
				fmt.Fprintf(os.Stdout, "Up to date (%s)\n", app.Version)
			}
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := client.CheckForUpdates(ctx); err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		return nil
	},
}
