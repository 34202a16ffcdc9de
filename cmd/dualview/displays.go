package main

import (
	"fmt"
	"os"

	"dualview/internal/display"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdDisplays)
}

var cmdDisplays = &cobra.Command{
	Use:   "displays",
	Short: "List attached displays",
	Long:  `Enumerates the attached displays and shows which ones would host the primary and secondary windows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _, conn, err := display.NewSystem()
		if err != nil {
			return fmt.Errorf("open display system: %w", err)
		}
		defer conn.Close()

		displays, err := provider.Displays()
		if err != nil {
			return err
		}
		primary, err := provider.Primary()
		if err != nil {
			return err
		}
		secondary, hasSecondary := display.FindSecondary(displays, primary)

		for _, d := range displays {
			role := "-"
			switch {
			case d.ID == primary.ID:
				role = "primary"
			case hasSecondary && d.ID == secondary.ID:
				role = "secondary"
			}
			fmt.Fprintf(os.Stdout, "[id=%d] %-12s %-20s %s\n", d.ID, d.Name, d.Bounds, role)
		}
		if !hasSecondary {
			fmt.Fprintln(os.Stdout, "No secondary display; only the primary window will open")
		}
		return nil
	},
}
