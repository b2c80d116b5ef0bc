package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/vcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd(opts *globalOptions) *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history from HEAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.openRepo()
			if err != nil {
				return err
			}
			if err := checkOperands(args, 0, 0); err != nil {
				return err
			}

			entries, err := r.Log("", limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no commits yet")
				return nil
			}

			for i, entry := range entries {
				c := entry.Commit
				if oneline {
					fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), repo.MessageSummary(c.Message))
					continue
				}
				if i == 0 {
					fmt.Fprintf(out, "commit %s (HEAD)\n", entry.Hash)
				} else {
					fmt.Fprintf(out, "commit %s\n", entry.Hash)
				}
				fmt.Fprintf(out, "Author: %s\n", c.Author)
				fmt.Fprintf(out, "Date:   %s\n", formatCommitTime(c.Timestamp, c.AuthorTimezone))
				if c.Signature != "" {
					fmt.Fprintf(out, "Signed: %s\n", describeCommitSignature(c))
				}
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 = all)")
	return cmd
}

// formatCommitTime renders ts in the author's recorded zone, falling back to
// UTC when the zone is missing or malformed.
func formatCommitTime(ts int64, tz string) string {
	t := time.Unix(ts, 0).UTC()
	if zoned, err := time.Parse("-0700", tz); err == nil {
		t = t.In(zoned.Location())
	}
	return t.Format("2006-01-02 15:04:05 -0700")
}
