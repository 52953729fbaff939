package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/feeds"
	"github.com/hoanghai1803/mdreadtime/internal/models"
)

var (
	feedFullText bool
	feedMax      int
	feedLookback int
	feedFormat   string
)

var feedCmd = &cobra.Command{
	Use:   "feed [URL]",
	Short: "Estimate the articles of an RSS or Atom feed",
	Long: `Estimate the reading time of each recent article in a feed. Without a
URL every active feed saved with "mdreadtime sources add" is scanned.

By default the article body carried by the feed is estimated. With
--full-text each article page is fetched and its readable content is
extracted instead.

Examples:
  mdreadtime feed https://go.dev/blog/feed.atom
  mdreadtime feed https://example.com/rss --full-text --max 5
  mdreadtime feed`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(feedFormat); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fo := feeds.FetchOptions{
			MaxArticles:  cfg.Feeds.MaxArticlesPerFeed,
			LookbackDays: cfg.Feeds.LookbackDays,
			FullText:     cfg.Feeds.ExtractFullText,
		}
		if cmd.Flags().Changed("max") {
			fo.MaxArticles = feedMax
		}
		if cmd.Flags().Changed("lookback") {
			fo.LookbackDays = feedLookback
		}
		if feedFullText {
			fo.FullText = true
		}

		if len(args) == 0 {
			return scanSavedFeeds(cmd, fo, cfg)
		}
		if !validFeedURL(args[0]) {
			return fmt.Errorf("invalid feed URL %q: must be an absolute http or https URL", args[0])
		}

		articles, err := feeds.NewFetcher().EstimateFeed(cmd.Context(), args[0], fo, cfg.EstimatorOptions()...)
		if err != nil {
			return err
		}

		if feedFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), articles)
		}
		writeArticles(cmd.OutOrStdout(), articles)
		return nil
	},
}

// scanSavedFeeds estimates every active saved feed. Feeds that fail are
// reported after the results.
func scanSavedFeeds(cmd *cobra.Command, fo feeds.FetchOptions, cfg *config.Config) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sources, err := store.GetActiveSources(cmd.Context())
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New(`no active saved feeds: pass a URL or add one with "mdreadtime sources add"`)
	}

	result, err := feeds.NewFetcher().EstimateAll(cmd.Context(), sources, fo, cfg.EstimatorOptions()...)
	if err != nil {
		return err
	}

	if feedFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	writeArticles(cmd.OutOrStdout(), result.Articles)
	for _, f := range result.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "failed: %s: %s\n", f.Source, f.Error)
	}
	return nil
}

// validFeedURL reports whether raw is an absolute http or https URL.
func validFeedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func init() {
	feedCmd.Flags().BoolVar(&feedFullText, "full-text", false, "fetch and extract each article page")
	feedCmd.Flags().IntVar(&feedMax, "max", 20, "maximum number of articles (overrides config)")
	feedCmd.Flags().IntVar(&feedLookback, "lookback", 7, "only include articles from the last N days (overrides config)")
	feedCmd.Flags().StringVarP(&feedFormat, "format", "f", "table", "output format: table or json")
	rootCmd.AddCommand(feedCmd)
}

func writeArticles(w io.Writer, articles []models.ArticleEstimate) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No recent articles.")
		return
	}

	header := []string{"Title", "Published", "Words", "Images", "Minutes", "Source"}
	align := []int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	}
	// Articles from a scan of saved feeds name their feed.
	showFeed := slices.ContainsFunc(articles, func(a models.ArticleEstimate) bool { return a.Feed != "" })
	if showFeed {
		header = append([]string{"Feed"}, header...)
		align = append([]int{tablewriter.ALIGN_LEFT}, align...)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetColumnAlignment(align)

	for _, a := range articles {
		published := "-"
		if a.PublishedAt != nil {
			published = a.PublishedAt.Local().Format("2006-01-02")
		}
		source := "feed"
		if a.FullText {
			source = "page"
		}
		row := []string{
			a.Title,
			published,
			strconv.Itoa(a.WordsCount),
			strconv.Itoa(a.ImagesCount),
			strconv.Itoa(a.Minutes),
			source,
		}
		if showFeed {
			row = append([]string{a.Feed}, row...)
		}
		table.Append(row)
	}
	table.Render()
}
