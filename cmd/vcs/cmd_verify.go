package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check object integrity and repository invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.openRepo()
			if err != nil {
				return err
			}
			if err := checkOperands(args, 0, 0); err != nil {
				return err
			}

			report, err := r.Verify()
			if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"ok: verified %d object(s), %d commit(s), %d tree(s), %d blob(s), %d index entr(ies)\n",
				report.Objects,
				report.Commits,
				report.ReachableTrees,
				report.ReachableBlobs,
				report.IndexEntries,
			)
			return nil
		},
	}
}
