package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/watchlist"
	"github.com/animeverse/animeverse/internal/observability"
	"github.com/animeverse/animeverse/internal/output"
)

var watchlistCmd = &cobra.Command{
	Use:     "watchlist",
	Aliases: []string{"wl"},
	Short:   "Manage the local watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show saved shows and progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		wl, db, err := openWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		entries, err := wl.List(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, func(f output.Formatter) (string, error) {
			return f.FormatWatchlist(entries)
		})
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <provider> <id>",
	Short: "Look up a show and save it to the watchlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		anime, err := lookupAnime(cmd, args[0], args[1])
		if err != nil {
			return err
		}

		wl, db, err := openWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		saved, err := wl.Add(cmd.Context(), core.WatchlistEntry{
			Anime:         anime.Anime,
			TotalEpisodes: anime.TotalEpisodes,
			WatchStatus:   status,
		})
		if err != nil {
			return err
		}
		observability.CLILogger.Info("Added to watchlist", zap.String("id", saved.ID), zap.String("title", saved.Title))
		return printWatchlist(cmd, wl)
	},
}

var watchlistToggleCmd = &cobra.Command{
	Use:   "toggle <provider> <id>",
	Short: "Add a show if missing, remove it otherwise",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		wl, db, err := openWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		anime := core.Anime{ID: args[1], Provider: args[0]}
		present, err := wl.Contains(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		if !present {
			detail, err := lookupAnime(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			anime = detail.Anime
		}

		added, err := wl.Toggle(cmd.Context(), anime)
		if err != nil {
			return err
		}
		observability.CLILogger.Info("Toggled watchlist entry", zap.String("id", anime.ID), zap.Bool("added", added))
		return printWatchlist(cmd, wl)
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a show from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wl, db, err := openWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		removed, err := wl.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%q is not in the watchlist: %w", args[0], core.ErrNotFound)
		}
		return printWatchlist(cmd, wl)
	},
}

var watchlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every show from the watchlist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wl, db, err := openWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		n, err := wl.Clear(cmd.Context())
		if err != nil {
			return err
		}
		observability.CLILogger.Info("Watchlist cleared", zap.Int("removed", n))
		return printWatchlist(cmd, wl)
	},
}

var watchlistProgressCmd = &cobra.Command{
	Use:   "progress <id> <episode>",
	Short: "Record the last watched episode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		episode, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("episode must be a number: %w", err)
		}

		wl, db, err := openWatchlist(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		entry, err := wl.SetProgress(cmd.Context(), args[0], episode)
		if err != nil {
			return err
		}
		observability.CLILogger.Info("Progress saved",
			zap.String("id", entry.ID),
			zap.Int("episode", entry.CurrentEpisode),
			zap.String("status", entry.WatchStatus))
		return printWatchlist(cmd, wl)
	},
}

func lookupAnime(cmd *cobra.Command, provider, id string) (*core.AnimeDetail, error) {
	_, cat, err := loadCatalog(cmd.Context())
	if err != nil {
		return nil, err
	}
	return cat.Info(cmd.Context(), provider, id)
}

func printWatchlist(cmd *cobra.Command, wl *watchlist.Watchlist) error {
	entries, err := wl.List(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd, func(f output.Formatter) (string, error) {
		return f.FormatWatchlist(entries)
	})
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd, watchlistAddCmd, watchlistToggleCmd, watchlistRemoveCmd, watchlistClearCmd, watchlistProgressCmd)

	watchlistAddCmd.Flags().String("status", core.WatchStatusWatching, "watch status: watching, planned, completed, dropped")
}
