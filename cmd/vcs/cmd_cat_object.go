package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/cobra"
)

func newCatObjectCmd(opts *globalOptions) *cobra.Command {
	var showType bool

	cmd := &cobra.Command{
		Use:   "cat-object <id>",
		Short: "Print the content of a stored object",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.openRepo()
			if err != nil {
				return err
			}
			if err := checkOperands(args, 1, 1); err != nil {
				return err
			}

			h := object.Hash(strings.ToLower(strings.TrimSpace(args[0])))
			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showType {
				fmt.Fprintln(out, objType)
				return nil
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type instead of its content")
	return cmd
}
