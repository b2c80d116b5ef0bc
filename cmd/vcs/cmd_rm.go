package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRmCmd(opts *globalOptions) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm [--cached] <path>",
		Short: "Unstage a file and delete it from the working tree if tracked",
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
			return r.Remove([]string{abs}, cached)
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "remove from index only, keep files on disk")
	return cmd
}
