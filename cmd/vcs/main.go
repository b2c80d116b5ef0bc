package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/vcs/internal/logging"
	"github.com/odvcencio/vcs/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "vcs 0.1.0-dev"

// globalOptions carries root-level flags down to subcommands.
type globalOptions struct {
	logLevel string
	log      *zap.Logger
}

func (g *globalOptions) repoOptions() []repo.Option {
	return []repo.Option{repo.WithLogger(g.log)}
}

// openRepo opens the repository containing the current directory.
func (g *globalOptions) openRepo() (*repo.Repo, error) {
	return repo.Open(".", g.repoOptions()...)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "vcs",
		Short:         "A small content-addressed version control system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(opts.logLevel)
			if err != nil {
				return err
			}
			opts.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log.Sync()
		},
	}

	defaultLevel := os.Getenv("VCS_LOG_LEVEL")
	if defaultLevel == "" {
		defaultLevel = logging.LevelNone
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaultLevel, "log level: debug, info, warn, error or none (env VCS_LOG_LEVEL)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newCommitCmd(opts))
	root.AddCommand(newRmCmd(opts))
	root.AddCommand(newLogCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newCatObjectCmd(opts))
	root.AddCommand(newVerifyCmd(opts))
	root.AddCommand(newReflogCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
