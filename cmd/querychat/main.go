// Command querychat is a terminal chat client for a querydesk server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"querydesk/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	_ = config.LoadEnv()

	opts := &replOptions{}
	cmd := &cobra.Command{
		Use:          "querychat",
		Short:        "Ask a querydesk server questions from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts)
		},
	}

	server := os.Getenv("QUERYCHAT_SERVER")
	if server == "" {
		server = "http://localhost:9090"
	}
	cmd.Flags().StringVar(&opts.Server, "server", server, "querydesk server URL")
	cmd.Flags().StringVar(&opts.User, "user", "admin", "user ID sent with every query")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "per-query timeout")
	return cmd
}
