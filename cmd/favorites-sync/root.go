package main

import (
	"context"
	"favorites-sync/internal"
	"os"

	"github.com/spf13/cobra"
)

const AppName = "favorites-sync"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Offline-first favorites sync engine",
		Long:          "favorites-sync keeps a user's favorite tickers in sync with the remote store, queueing changes made while offline and replaying them when the network returns.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("env", "", "path to a .env file")
	cmd.PersistentFlags().Bool("offline", false, "force offline mode (no remote calls)")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewServeCmd(),
		NewListCmd(),
		NewAddCmd(),
		NewRemoveCmd(),
		NewReplayCmd(),
		NewPendingCmd(),
	)

	return cmd
}

// newApp собирает приложение по флагам команды. Логи одноразовых команд
// идут в stderr, чтобы stdout оставался пригодным для разбора.
func newApp(cmd *cobra.Command, forServe bool) (*internal.App, error) {
	envPath, _ := cmd.Flags().GetString("env")
	offline, _ := cmd.Flags().GetBool("offline")

	opts := internal.Options{EnvPath: envPath, Offline: offline, LogWriter: cmd.ErrOrStderr()}
	if forServe {
		opts.LogWriter = cmd.OutOrStdout()
	}
	return internal.NewApp(cmdContext(cmd), opts)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
