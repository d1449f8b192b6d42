// Package ctl implements expensectl, the command line companion of the
// expenses server. It works against the same store the server uses.
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/services"
)

var (
	BuildVersion  = `(missing)`
	BuildShortSHA = `(missing)`
)

// app carries what the subcommands share. The backend is opened on first
// use so that version and events never touch the store.
type app struct {
	cfg     *config.Config
	logger  *applog.Logger
	backend *backend.BackendResult
}

func (a *app) service(ctx context.Context) (*services.ExpenseService, error) {
	if a.backend == nil {
		res, err := cli.InitBackend(ctx, a.logger, a.cfg)
		if err != nil {
			return nil, err
		}
		a.backend = res
	}
	return a.backend.Service, nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Cleanup()
	a.backend = nil
	return err
}

// setup loads configuration and the logger. Logging stays at warn unless
// asked for, so command output on stdout is not interleaved.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	} else if level == "info" {
		level = "warn"
	}

	a.cfg = cfg
	a.logger = cli.SetupLogger(level, os.Stderr).WithComponent(applog.ComponentCLI)
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "expensectl",
		Short:             "Household expense ledger",
		Long:              `Record, remove and summarize monthly household expenses from the command line.`,
		PersistentPreRunE: a.setup,
		Version:           fmt.Sprintf("%s (%s)", BuildVersion, BuildShortSHA),
	}

	root.SilenceUsage = true
	root.SilenceErrors = true
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	root.AddCommand(
		newAddCmd(a),
		newDeleteLastCmd(a),
		newListCmd(a),
		newSummaryCmd(a),
		newEventsCmd(a),
		newVersionCmd(),
	)
	return root
}

// Main runs expensectl with args, where args[0] is the program name.
func Main(ctx context.Context, args []string, output io.Writer) error {
	a := &app{}
	defer func() {
		if err := a.close(); err != nil && a.logger != nil {
			a.logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	root := newRootCmd(a)
	root.SetOut(output)
	root.SetErr(os.Stderr)
	root.SetArgs(args[1:])

	return root.ExecuteContext(ctx)
}
