// Package cli implements assetctl, the command-line client of the origin.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/client/client"
	"github.com/dmitrijs2005/assetorigin/internal/client/config"
	"github.com/spf13/cobra"
)

// App carries what every subcommand needs. newClient is swapped in tests.
type App struct {
	config    *config.Config
	out       io.Writer
	newClient func(*config.Config) client.Client
}

func NewApp(cfg *config.Config) *App {
	return &App{
		config: cfg,
		out:    os.Stdout,
		newClient: func(c *config.Config) client.Client {
			return client.NewHTTPClient(c.ServerURL, c.Timeout, c.ManagementToken)
		},
	}
}

// RootCmd builds the command tree. Persistent flags override the
// environment-derived config.
func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assetctl",
		Short:         "Command-line client for the asset origin",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.config.ServerURL, "server", "s", a.config.ServerURL, "origin base URL")
	pf.StringVarP(&a.config.ManagementToken, "token", "k", a.config.ManagementToken, "management bearer token")
	pf.DurationVar(&a.config.Timeout, "timeout", a.config.Timeout, "per-request timeout")

	root.AddCommand(
		a.uploadCmd(),
		a.getCmd(),
		a.getVersionCmd(),
		a.getPrivateCmd(),
		a.publishCmd(),
		a.tokenCmd(),
		a.mintKeyCmd(),
		a.benchCmd(),
		a.healthCmd(),
	)
	return root
}

// Run executes the command line and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.RootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if client.IsUnavailable(err) {
			fmt.Fprintln(os.Stderr, "is the origin running at", a.config.ServerURL, "?")
		}
		return 1
	}
	return 0
}

func (a *App) client() client.Client {
	return a.newClient(a.config)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
