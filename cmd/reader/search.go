package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/romangod6/spaceflight-reader/internal/models"
	"github.com/romangod6/spaceflight-reader/internal/search"
	"github.com/spf13/cobra"
)

const (
	titleColumnWidth   = 40
	summaryColumnWidth = 60
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [keyword...]",
		Short: "Fetch the latest articles and rank them by keyword",
		Long: `Fetches one page of the newest articles and prints the ones matching the
keyword, title matches first. Without a keyword every article is printed in
publication order.`,
		Example: `  reader search starship
  reader search moon lander --config ./config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps(opts, "reader-cli", true)
			if err != nil {
				return err
			}
			defer func() { _ = d.logger.Sync() }()

			keyword := strings.Join(args, " ")
			result, err := d.service.Search(cmd.Context(), keyword)
			if err != nil {
				return fmt.Errorf("%s: %w", search.LoadFailedMessage, err)
			}

			renderArticles(cmd.OutOrStdout(), d.transform.TransformAll(result.Articles), result.Keyword)
			return nil
		},
	}
}

func newResultsTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.SeparateRows = true

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: titleColumnWidth},
		{Number: 6, WidthMax: summaryColumnWidth},
	})

	t.AppendHeader(table.Row{"#", "ID", "Date", "Site", "Title", "Summary"})
	return t
}

// renderArticles prints one row per card. An empty list prints a notice
// instead of an empty table.
func renderArticles(w io.Writer, articles []models.DisplayArticle, keyword string) {
	if len(articles) == 0 {
		if keyword != "" {
			fmt.Fprintf(w, "No articles found for %q.\n", keyword)
			return
		}
		fmt.Fprintln(w, "No articles found.")
		return
	}

	t := newResultsTable(w)
	for i, a := range articles {
		site := a.NewsSite
		if site == "" {
			site = "N/A"
		}
		t.AppendRow(table.Row{i + 1, a.ID, a.DisplayDate, site, a.Title, a.CardSummary})
	}

	footer := fmt.Sprintf("Keyword: %s", keyword)
	if keyword == "" {
		footer = "Latest"
	}
	t.AppendFooter(table.Row{"Total", len(articles), footer})
	t.Render()
}
