package main

import (
	"fmt"

	"dualview/internal/app"

	"github.com/spf13/cobra"
)

func runShell(cmd *cobra.Command, args []string) error {
	application, err := app.NewApplication(app.Options{
		ConfigPath: configPath,
		LogLevel:   logLevel,
	})
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	return application.Run()
}
