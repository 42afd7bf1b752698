package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hoanghonghuy/gitmsg/internal/app"
	"github.com/hoanghonghuy/gitmsg/internal/gitx"
)

func init() {
	rootCmd.AddCommand(installHookCmd)
}

var installHookCmd = &cobra.Command{
	Use:   "install-hook [repo]",
	Short: "Install a prepare-commit-msg hook that runs gitmsg",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		root, err := gitx.ResolveRepoRoot(cmd.Context(), arg)
		if err != nil {
			return err
		}

		exe, err := os.Executable()
		if err != nil {
			exe = "gitmsg"
		} else {
			exe, _ = filepath.Abs(exe)
		}

		path, err := app.InstallHook(cmd.Context(), root, exe)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Hook installed to %s\n", path)
		return nil
	},
}
