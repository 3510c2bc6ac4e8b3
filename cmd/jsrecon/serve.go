package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/imoan723/JSRecon-Buddy/pkg/rule"
	"github.com/imoan723/JSRecon-Buddy/pkg/serve"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming scan worker",
	Long: `Run a long-lived worker that accepts scan requests on stdin and
emits findings on stdout as NDJSON.

The catalog is loaded once at startup; requests may override it with
serialized rules. The process exits when stdin closes or on SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rules, err := rule.NewLoader().LoadBuiltin()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		cancel()
	}()

	srv := serve.NewServer(rules, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
