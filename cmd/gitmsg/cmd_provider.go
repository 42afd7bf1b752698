package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoanghonghuy/gitmsg/internal/config"
)

var (
	providerName    string
	providerBaseURL string
	providerModel   string
	providerAPIKey  string
)

func init() {
	rootCmd.AddCommand(providerCmd)
	providerCmd.AddCommand(providerAddCmd, providerListCmd, providerUseCmd, providerRemoveCmd)

	providerAddCmd.Flags().StringVar(&providerName, "name", "", "provider name")
	providerAddCmd.Flags().StringVar(&providerBaseURL, "base-url", "", "OpenAI-compatible base URL")
	providerAddCmd.Flags().StringVar(&providerModel, "model", "", "model name")
	providerAddCmd.Flags().StringVar(&providerAPIKey, "api-key", "", "API key (prompted on first use when omitted)")
	for _, f := range []string{"name", "base-url", "model"} {
		_ = providerAddCmd.MarkFlagRequired(f)
	}
}

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage model providers",
}

var providerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		p, err := cfg.AddProvider(providerName, providerBaseURL, providerModel)
		if err != nil {
			return err
		}
		if err := config.Save(cfg, cfgPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		if providerAPIKey != "" {
			if err := config.NewSecretStore("").Set(p.ID, providerAPIKey); err != nil {
				return fmt.Errorf("save API key: %w", err)
			}
		}
		fmt.Fprintf(os.Stdout, "Added provider %s (%s)\n", p.Name, p.ID)
		if cfg.ActiveProvider == p.ID {
			fmt.Fprintln(os.Stdout, "It is now the active provider.")
		}
		return nil
	},
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if len(cfg.Providers) == 0 {
			fmt.Fprintln(os.Stdout, "No providers configured. Run: gitmsg provider add")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME\tMODEL\tBASE URL")
		for _, p := range cfg.Providers {
			mark := ""
			if p.ID == cfg.ActiveProvider {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, p.ID, p.Name, p.Model, p.BaseURL)
		}
		return w.Flush()
	},
}

var providerUseCmd = &cobra.Command{
	Use:   "use <id|name>",
	Short: "Set the active provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		p, err := cfg.SetActive(args[0])
		if err != nil {
			return err
		}
		if err := config.Save(cfg, cfgPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Active provider: %s (%s)\n", p.Name, p.Model)
		return nil
	},
}

var providerRemoveCmd = &cobra.Command{
	Use:   "remove <id|name>",
	Short: "Remove a provider and its stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		p, err := cfg.RemoveProvider(args[0])
		if err != nil {
			return err
		}
		if err := config.Save(cfg, cfgPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		if err := config.NewSecretStore("").Delete(p.ID); err != nil {
			return fmt.Errorf("delete API key: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Removed provider %s\n", p.Name)
		if active, ok := cfg.Active(); ok {
			fmt.Fprintf(os.Stdout, "Active provider: %s\n", active.Name)
		}
		return nil
	},
}
