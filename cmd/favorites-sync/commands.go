package main

import (
	"context"
	"encoding/json"
	"errors"
	"favorites-sync/internal"
	"favorites-sync/internal/core/domain"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and replay queues whenever the network comes back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
}

// runForUser собирает приложение, проверяет сеть и выполняет fn для USER_ID.
func runForUser(cmd *cobra.Command, fn func(ctx context.Context, app *internal.App, userID string, online bool) error) error {
	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.Context(cmdContext(cmd))
	userID, err := app.CurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("USER_ID is not set: %w", err)
	}
	return fn(ctx, app, userID, app.Online(ctx))
}

type favoritesOutput struct {
	Favorites []domain.Favorite `json:"favorites"`
	Online    bool              `json:"online"`
	Projected bool              `json:"projected"`
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites (remote when online, cache when offline)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projected, _ := cmd.Flags().GetBool("projected")
			return runForUser(cmd, func(ctx context.Context, app *internal.App, userID string, online bool) error {
				var (
					favorites []domain.Favorite
					err       error
				)
				if projected {
					favorites, err = app.UseCases().Projected.Execute(ctx, userID)
				} else {
					favorites, err = app.UseCases().Get.Execute(ctx, userID)
				}
				if err != nil {
					return err
				}

				if jsonMode(cmd) {
					return writeJSON(cmd, favoritesOutput{Favorites: favorites, Online: online, Projected: projected})
				}
				out := cmd.OutOrStdout()
				if !online {
					fmt.Fprintln(out, "(offline, showing cached favorites)")
				}
				if len(favorites) == 0 {
					fmt.Fprintln(out, "No favorites.")
					return nil
				}
				for _, fav := range favorites {
					fmt.Fprintf(out, "%s\t%s\n", fav.Symbol, fav.DisplayName())
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("projected", false, "overlay pending offline changes")
	return cmd
}

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a ticker to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			shortName, _ := cmd.Flags().GetString("short-name")
			fav := domain.Favorite{Symbol: args[0], Name: name, ShortName: shortName}

			return runForUser(cmd, func(ctx context.Context, app *internal.App, userID string, online bool) error {
				if err := app.UseCases().Add.Execute(ctx, userID, fav); err != nil {
					return err
				}
				return reportMutation(cmd, domain.ActionAdd, fav, online)
			})
		},
	}
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("short-name", "", "short display name")
	return cmd
}

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a ticker from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fav := domain.Favorite{Symbol: args[0]}
			return runForUser(cmd, func(ctx context.Context, app *internal.App, userID string, online bool) error {
				if err := app.UseCases().Remove.Execute(ctx, userID, fav); err != nil {
					return err
				}
				return reportMutation(cmd, domain.ActionRemove, fav, online)
			})
		},
	}
}

func reportMutation(cmd *cobra.Command, action domain.ActionType, fav domain.Favorite, online bool) error {
	symbol := domain.NormalizeSymbol(fav.Symbol)
	if jsonMode(cmd) {
		return writeJSON(cmd, map[string]any{"action": action, "symbol": symbol, "queued": !online})
	}
	if online {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: saved\n", action, symbol)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: queued until the network is back\n", action, symbol)
	}
	return nil
}

type replayOutput struct {
	Total     int    `json:"total"`
	Applied   int    `json:"applied"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

// NewReplayCmd creates the replay command.
func NewReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the offline queue against the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForUser(cmd, func(ctx context.Context, app *internal.App, userID string, online bool) error {
				if !online {
					return errors.New("offline, nothing replayed")
				}

				report, err := app.UseCases().Replay.Execute(ctx, userID)
				if err != nil && !errors.Is(err, domain.ErrReplayPartialFailure) {
					return err
				}

				if jsonMode(cmd) {
					out := replayOutput{Total: report.Total, Applied: report.Applied, Remaining: report.Remaining}
					if err != nil {
						out.Error = err.Error()
					}
					if werr := writeJSON(cmd, out); werr != nil {
						return werr
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "replayed %d of %d action(s), %d remaining\n",
						report.Applied, report.Total, report.Remaining)
				}
				return err
			})
		},
	}
}

// NewPendingCmd creates the pending command.
func NewPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show actions queued while offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForUser(cmd, func(ctx context.Context, app *internal.App, userID string, online bool) error {
				actions, err := app.UseCases().Pending.Execute(ctx, userID)
				if err != nil {
					return err
				}
				if jsonMode(cmd) {
					return writeJSON(cmd, map[string]any{"actions": actions, "count": len(actions)})
				}

				out := cmd.OutOrStdout()
				if len(actions) == 0 {
					fmt.Fprintln(out, "No pending actions.")
					return nil
				}
				for _, action := range actions {
					queuedAt := ""
					if !action.QueuedAt.IsZero() {
						queuedAt = action.QueuedAt.Local().Format(time.DateTime)
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", action.Type, action.Favorite.Symbol, queuedAt)
				}
				return nil
			})
		},
	}
}

func jsonMode(cmd *cobra.Command) bool {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	return jsonFlag
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
