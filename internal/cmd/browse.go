package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/observability"
	"github.com/animeverse/animeverse/internal/output"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search anime across providers",
	Long: `Search the default provider, topping up from backup providers when
fewer than 10 shows match, and falling back to Jikan when nothing does.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		_, cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		result, err := cat.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		observability.CLILogger.Debug("Search complete",
			zap.String("query", query),
			zap.Int("results", result.Total))

		return render(cmd, func(f output.Formatter) (string, error) {
			return f.FormatList("Results for "+query, result.Results)
		})
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List top airing anime",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runList(cmd, "Trending", core.Catalog.Trending)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently released episodes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runList(cmd, "Recent episodes", core.Catalog.Recent)
	},
}

func runList(cmd *cobra.Command, title string, list func(core.Catalog, context.Context) ([]core.Anime, error)) error {
	_, cat, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}
	items, err := list(cat, cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd, func(f output.Formatter) (string, error) {
		return f.FormatList(title, items)
	})
}

var infoCmd = &cobra.Command{
	Use:   "info <provider> <id>",
	Short: "Show details and episodes for a show",
	Long:  `Show details for a show. Use provider "jikan" with a MyAnimeList id for metadata only.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		detail, err := cat.Info(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return render(cmd, func(f output.Formatter) (string, error) {
			return f.FormatDetail(detail)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <provider> <episode-id>",
	Short: "List stream sources for an episode",
	Long: `List stream sources for an episode so they can be handed to an external
player. With --best the preferred source (HLS first) is listed first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		best, _ := cmd.Flags().GetBool("best")

		_, cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		info, err := cat.Watch(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return render(cmd, func(f output.Formatter) (string, error) {
			return f.FormatStreams(info, best)
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd, trendingCmd, recentCmd, infoCmd, watchCmd)

	watchCmd.Flags().Bool("best", false, "list the preferred source first")
}
