package main

import (
	"fmt"
	"path/filepath"

	"github.com/odvcencio/vcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty vcs repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOperands(args, 0, 1); err != nil {
				return err
			}
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			r, err := repo.Init(abs, opts.repoOptions()...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty vcs repository in %s\n", r.VcsDir+string(filepath.Separator))
			return nil
		},
	}
}
