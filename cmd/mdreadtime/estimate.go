package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/document"
	"github.com/hoanghai1803/mdreadtime/internal/models"
	"github.com/hoanghai1803/mdreadtime/internal/readingtime"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

const maxParallelFiles = 8

var (
	estimateFormat   string
	estimateWPM      float64
	estimateNoImages bool
	estimateStrict   bool
	estimateSave     bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate FILE...",
	Short: "Estimate the reading time of markdown files",
	Long: `Estimate the reading time of one or more markdown files.

A leading YAML front matter block may set title, tags, words_per_minute and
include_images for a single document. Only the text after it is estimated.
Tags are stored with the estimate when --save is given.

Examples:
  mdreadtime estimate README.md
  mdreadtime estimate docs/*.md --wpm 200
  mdreadtime estimate post.md --format json --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(estimateFormat); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		settings := cfg.Estimator
		if cmd.Flags().Changed("wpm") {
			settings.WordsPerMinute = estimateWPM
		}
		if estimateNoImages {
			settings.IncludeImages = false
		}
		if estimateStrict {
			settings.StrictWords = true
		}

		results, err := estimateFiles(cmd.Context(), args, settings)
		if err != nil {
			return err
		}

		if estimateSave {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := saveResults(cmd.Context(), store, results); err != nil {
				return err
			}
		}

		return writeResults(cmd.OutOrStdout(), estimateFormat, results)
	},
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateFormat, "format", "f", "table", "output format: table or json")
	estimateCmd.Flags().Float64Var(&estimateWPM, "wpm", readingtime.DefaultWordsPerMinute, "reading speed in words per minute")
	estimateCmd.Flags().BoolVar(&estimateNoImages, "no-images", false, "ignore images")
	estimateCmd.Flags().BoolVar(&estimateStrict, "strict", false, "only count tokens made of letters or digits")
	estimateCmd.Flags().BoolVar(&estimateSave, "save", false, "save the estimates to the history database")
	rootCmd.AddCommand(estimateCmd)
}

// fileEstimate is the result for one file.
type fileEstimate struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	readingtime.Stats

	settings config.EstimatorConfig
	hash     string
	tags     []string
}

// estimateFiles loads and estimates every path concurrently. Results keep the
// order of paths. The first failure cancels the rest.
func estimateFiles(ctx context.Context, paths []string, settings config.EstimatorConfig) ([]fileEstimate, error) {
	results := make([]fileEstimate, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			doc, err := document.Load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			stats, err := doc.Estimate(settings.Options()...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[i] = fileEstimate{
				Path:     path,
				Title:    doc.Title,
				Stats:    stats,
				settings: documentSettings(settings, doc.FrontMatter),
				hash:     storage.HashContent(doc.Body),
				tags:     frontMatterTags(doc.FrontMatter),
			}
			slog.Debug("estimated file", "path", path, "words", stats.WordsCount, "minutes", stats.Minutes)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// documentSettings returns base with the front matter overrides applied, the
// settings Document.Estimate ends up using.
func documentSettings(base config.EstimatorConfig, fm document.FrontMatter) config.EstimatorConfig {
	if fm.WordsPerMinute != nil {
		base.WordsPerMinute = *fm.WordsPerMinute
	}
	if fm.IncludeImages != nil {
		base.IncludeImages = *fm.IncludeImages
	}
	if fm.StrictWords != nil {
		base.StrictWords = *fm.StrictWords
	}
	return base
}

// frontMatterTags returns the non-blank tags of fm.
func frontMatterTags(fm document.FrontMatter) []string {
	var tags []string
	for _, t := range fm.Tags {
		if strings.TrimSpace(t) != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// saveResults stores each result unless the same content was already saved
// from the same path with the same settings.
func saveResults(ctx context.Context, store *storage.Store, results []fileEstimate) error {
	for _, r := range results {
		key := storage.EstimateKey{
			Source:         r.Path,
			ContentHash:    r.hash,
			WordsPerMinute: r.settings.WordsPerMinute,
			IncludeImages:  r.settings.IncludeImages,
			StrictWords:    r.settings.StrictWords,
		}

		existing, err := store.FindEstimate(ctx, key)
		if err == nil {
			slog.Debug("estimate already saved", "path", r.Path, "id", existing.ID)
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		id, err := store.SaveEstimate(ctx, &models.Estimate{
			Title:          r.Title,
			Source:         r.Path,
			ContentHash:    r.hash,
			WordsPerMinute: r.settings.WordsPerMinute,
			IncludeImages:  r.settings.IncludeImages,
			StrictWords:    r.settings.StrictWords,
			WordsCount:     r.WordsCount,
			ImagesCount:    r.ImagesCount,
			TimeMS:         r.Time,
			Minutes:        r.Minutes,
			Tags:           r.tags,
		})
		if err != nil {
			return fmt.Errorf("save %s: %w", r.Path, err)
		}
		slog.Debug("estimate saved", "path", r.Path, "id", id)
	}
	return nil
}

func writeResults(w io.Writer, format string, results []fileEstimate) error {
	if format == "json" {
		return writeJSON(w, results)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Title", "Words", "Images", "Minutes", "Time"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	var totalWords, totalImages int
	var totalTime int64
	for _, r := range results {
		totalWords += r.WordsCount
		totalImages += r.ImagesCount
		totalTime += r.Time
		table.Append([]string{
			r.Path,
			r.Title,
			strconv.Itoa(r.WordsCount),
			strconv.Itoa(r.ImagesCount),
			strconv.Itoa(r.Minutes),
			formatMillis(r.Time),
		})
	}
	if len(results) > 1 {
		table.Append([]string{"Total", "", strconv.Itoa(totalWords), strconv.Itoa(totalImages), "", formatMillis(totalTime)})
	}

	table.Render()
	return nil
}

func validateFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q: use table or json", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatMillis renders a duration in milliseconds rounded to the second.
func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Second).String()
}
