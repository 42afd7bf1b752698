package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoanghonghuy/gitmsg/internal/app"
)

var dumpOut string

func init() {
	rootCmd.AddCommand(dumpPromptCmd)
	dumpPromptCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "write the prompt to this file instead of stdout")
}

var dumpPromptCmd = &cobra.Command{
	Use:   "dump-prompt [repo]",
	Short: "Print the prompt that would be sent, without calling the model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		roots, err := resolveRoots(cmd.Context(), args)
		if err != nil {
			return err
		}
		gen, err := newGenerator(cfg)
		if err != nil {
			return err
		}

		w := os.Stdout
		if dumpOut != "" {
			f, err := os.Create(dumpOut)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return app.DumpPrompt(cmd.Context(), w, gen, roots[0])
	},
}
