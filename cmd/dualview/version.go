package main

import (
	"fmt"
	"os"
	"runtime"

	"dualview/internal/app"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdVersion)
}

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "%s %s (%s, %s/%s)\n", app.AppName, app.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
