package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoanghonghuy/gitmsg/internal/app"
	"github.com/hoanghonghuy/gitmsg/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the configuration interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		updated, apiKey, ok, err := app.RunConfigForm(cmd.Context(), cfg, cfgPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stdout, "Operation cancelled.")
			return nil
		}

		if err := config.Save(updated, cfgPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		if p, ok := updated.Active(); ok && apiKey != "" {
			if err := config.NewSecretStore("").Set(p.ID, apiKey); err != nil {
				return fmt.Errorf("save API key: %w", err)
			}
		}
		fmt.Fprintf(os.Stdout, "\nConfiguration saved to %s\n", cfgPath)
		return nil
	},
}
