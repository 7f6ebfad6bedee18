// Package cli implements the creditsync command line: serve, run, migrate
// and vault put. Every command reads the same configuration layers; flags
// after the command name are handed to the config loader unparsed.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fincoval/creditsync/internal/app"
	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/reconcile"
)

// Application is what the commands need from the wired service.
type Application interface {
	Run(ctx context.Context) error
	Migrate(ctx context.Context) error
	RunOnce(ctx context.Context, name string) ([]*reconcile.Summary, error)
	PutCredential(ctx context.Context, service, username, password string) error
	Close(ctx context.Context) error
}

var (
	newApp = func(ctx context.Context, cfg *config.Config) (Application, error) {
		a, err := app.NewApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	loadConfig = config.LoadConfig
)

var errFailedPass = errors.New("one or more passes failed")

// NewRootCommand builds the command tree reading prompts from in and
// writing results to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "creditsync",
		Short:         "Reconciles clients, credits and payments between the ERP and the collections platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	vault := &cobra.Command{Use: "vault", Short: "Manage stored credentials"}
	vault.AddCommand(newVaultPutCommand())

	root.AddCommand(newServeCommand(), newRunCommand(), newMigrateCommand(), vault)
	return root
}

// configCommand returns a command whose flags go to the config loader.
func configCommand(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, a Application, pos []string) error) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			if slices.Contains(rawArgs, "-h") || slices.Contains(rawArgs, "--help") {
				return cmd.Help()
			}
			pos, flags := splitArgs(rawArgs)
			if args != nil {
				if err := args(cmd, pos); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, loadConfig(flags))
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			return run(cmd, a, pos)
		},
	}
}

// splitArgs separates leading positional arguments from config flags.
func splitArgs(args []string) (positional, flags []string) {
	i := 0
	for i < len(args) && (len(args[i]) == 0 || args[i][0] != '-') {
		i++
	}
	return args[:i], args[i:]
}

func newServeCommand() *cobra.Command {
	return configCommand("serve [flags]", "Run the scheduler and the ops servers", cobra.NoArgs,
		func(cmd *cobra.Command, a Application, _ []string) error {
			return a.Run(cmd.Context())
		})
}

func newMigrateCommand() *cobra.Command {
	return configCommand("migrate [flags]", "Apply database migrations", cobra.NoArgs,
		func(cmd *cobra.Command, a Application, _ []string) error {
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		})
}

func newRunCommand() *cobra.Command {
	return configCommand("run <pass|job-class> [flags]", "Run one pass or one job class and print the summaries", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a Application, pos []string) error {
			summaries, err := a.RunOnce(cmd.Context(), pos[0])
			if len(summaries) > 0 {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(summaries); encErr != nil {
					return encErr
				}
			}
			if err != nil {
				return err
			}
			for _, s := range summaries {
				if s.Failed() {
					return fmt.Errorf("%w: %s", errFailedPass, s.Pass)
				}
			}
			return nil
		})
}

func newVaultPutCommand() *cobra.Command {
	return configCommand("put [service] [flags]", "Store a login in the credential vault", cobra.MaximumNArgs(1),
		func(cmd *cobra.Command, a Application, pos []string) error {
			service := common.SourceCredentialName
			if len(pos) == 1 {
				service = pos[0]
			}

			out := cmd.OutOrStdout()
			username, err := GetSimpleText(bufio.NewReader(cmd.InOrStdin()), "Username for "+service, out)
			if err != nil {
				return err
			}
			pw, err := GetPassword(out)
			if err != nil {
				return err
			}
			defer wipe(pw)

			if err := a.PutCredential(cmd.Context(), service, username, string(pw)); err != nil {
				return err
			}
			fmt.Fprintln(out, "Success!")
			return nil
		})
}
