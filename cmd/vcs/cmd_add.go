package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Stage a file or directory for the next commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.openRepo()
			if err != nil {
				return err
			}
			if err := checkOperands(args, 1, 1); err != nil {
				return err
			}

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return r.Add([]string{abs})
		},
	}
}
