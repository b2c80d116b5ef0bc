package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/vcs/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd(opts *globalOptions) *cobra.Command {
	var author string
	var sign bool
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit <message>",
		Short: "Record the staged snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.openRepo()
			if err != nil {
				return err
			}
			if err := checkOperands(args, 0, 1); err != nil {
				return err
			}
			if len(args) == 0 {
				return repo.ErrEmptyMessage
			}
			message := args[0]

			var commitOpts []repo.CommitOption
			if strings.TrimSpace(author) != "" {
				commitOpts = append(commitOpts, repo.WithAuthor(author))
			}
			if sign || strings.TrimSpace(signKey) != "" {
				signer, _, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				commitOpts = append(commitOpts, repo.WithSigner(signer))
			}

			h, err := r.Commit(message, commitOpts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", h.Short(), repo.MessageSummary(message))
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "override author (default: $VCS_AUTHOR, config user, then $USER)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with the default SSH key")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "path to the SSH private key used to sign")
	return cmd
}
