package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/vcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.openRepo()
			if err != nil {
				return err
			}
			if err := checkOperands(args, 0, 0); err != nil {
				return err
			}

			report, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Head == "" {
				fmt.Fprintln(out, "no commits yet")
			} else {
				fmt.Fprintf(out, "HEAD %s\n", report.Head.Short())
			}

			var staged, unstaged, untracked []string
			for _, e := range report.Staged() {
				staged = append(staged, fmt.Sprintf("  %s %s", indexMarker(e.IndexStatus), e.Path))
			}
			for _, e := range report.Unstaged() {
				marker := "~"
				if e.WorkStatus == repo.StatusDeleted {
					marker = "-"
				}
				unstaged = append(unstaged, fmt.Sprintf("  %s %s", marker, e.Path))
			}
			for _, e := range report.Untracked() {
				untracked = append(untracked, "  "+e.Path)
			}

			printSection(out, "staged:", staged)
			printSection(out, "unstaged:", unstaged)
			printSection(out, "untracked:", untracked)
			if report.Clean() {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}

func indexMarker(s repo.FileStatus) string {
	switch s {
	case repo.StatusNew:
		return "+"
	case repo.StatusDeleted:
		return "-"
	default:
		return "~"
	}
}

func printSection(out io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, s := range lines {
		fmt.Fprintln(out, s)
	}
}
