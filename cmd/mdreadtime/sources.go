package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage saved feeds",
	Long: `Manage the feeds scanned by "mdreadtime feed" when no URL is given.

Examples:
  mdreadtime sources add https://go.dev/blog/feed.atom --name "Go Blog"
  mdreadtime sources list
  mdreadtime sources disable 3`,
}

var sourceName string

var sourcesAddCmd = &cobra.Command{
	Use:   "add URL",
	Short: "Save a feed",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesAdd,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved feeds",
	Args:  cobra.NoArgs,
	RunE:  sourcesList,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete a saved feed",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesRemove,
}

var sourcesEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Include a saved feed in scans",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesToggle(true),
}

var sourcesDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Skip a saved feed in scans",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesToggle(false),
}

func init() {
	sourcesAddCmd.Flags().StringVar(&sourceName, "name", "", "display name (default: the feed URL)")
	sourcesCmd.AddCommand(sourcesAddCmd, sourcesListCmd, sourcesRemoveCmd, sourcesEnableCmd, sourcesDisableCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesAdd(cmd *cobra.Command, args []string) error {
	if !validFeedURL(args[0]) {
		return fmt.Errorf("invalid feed URL %q: must be an absolute http or https URL", args[0])
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	src, err := store.AddSource(cmd.Context(), sourceName, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as source %d\n", src.Name, src.ID)
	return nil
}

func sourcesList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sources, err := store.GetAllSources(cmd.Context())
	if err != nil {
		return err
	}
	writeSources(cmd.OutOrStdout(), sources)
	return nil
}

func sourcesRemove(cmd *cobra.Command, args []string) error {
	id, err := parseSourceID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteSource(cmd.Context(), id); err != nil {
		return fmt.Errorf("source %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d\n", id)
	return nil
}

func sourcesToggle(active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseSourceID(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ToggleSource(cmd.Context(), id, active); err != nil {
			return fmt.Errorf("source %d: %w", id, err)
		}
		return nil
	}
}

func parseSourceID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid source ID %q", raw)
	}
	return id, nil
}

func writeSources(w io.Writer, sources []models.FeedSource) {
	if len(sources) == 0 {
		fmt.Fprintln(w, `No saved feeds. Add one with "mdreadtime sources add URL".`)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Feed", "Active"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	for _, s := range sources {
		active := "no"
		if s.IsActive {
			active = "yes"
		}
		table.Append([]string{strconv.FormatInt(s.ID, 10), s.Name, s.FeedURL, active})
	}
	table.Render()
}
