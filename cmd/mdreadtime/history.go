package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hoanghai1803/mdreadtime/internal/models"
)

var (
	historyLimit  int
	historyFormat string
	historyTag    string
	historySearch string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved estimates",
	Long: `List estimates saved with "estimate --save" or through the HTTP API,
newest first.

Examples:
  mdreadtime history
  mdreadtime history --limit 5
  mdreadtime history --tag golang
  mdreadtime history --search "concurrency patterns"
  mdreadtime history --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(historyFormat); err != nil {
			return err
		}
		if historyTag != "" && historySearch != "" {
			return fmt.Errorf("--tag and --search cannot be combined")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		var estimates []models.Estimate
		switch {
		case historySearch != "":
			estimates, err = store.SearchEstimates(ctx, historySearch, historyLimit)
		case historyTag != "":
			estimates, err = store.ListEstimatesByTag(ctx, historyTag, historyLimit)
		default:
			estimates, err = store.ListEstimates(ctx, historyLimit)
		}
		if err != nil {
			return err
		}

		if historyFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), estimates)
		}

		totals, err := store.EstimateTotals(ctx)
		if err != nil {
			return err
		}
		writeHistory(cmd.OutOrStdout(), estimates, totals)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of estimates to show")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "table", "output format: table or json")
	historyCmd.Flags().StringVarP(&historyTag, "tag", "t", "", "only show estimates with this tag")
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "full-text search over titles and sources")
	rootCmd.AddCommand(historyCmd)
}

func writeHistory(w io.Writer, estimates []models.Estimate, totals *models.EstimateTotals) {
	if len(estimates) == 0 {
		fmt.Fprintln(w, "No saved estimates.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Source", "Tags", "Words", "Minutes", "Saved"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	for _, e := range estimates {
		table.Append([]string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.Source,
			strings.Join(e.Tags, ", "),
			strconv.Itoa(e.WordsCount),
			strconv.Itoa(e.Minutes),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%d saved, %d words, %s in total, %.1f min on average\n",
		totals.Count, totals.TotalWords, formatMillis(totals.TotalTimeMS), totals.AverageMinutes)
}
