package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/romangod6/spaceflight-reader/internal/fetcher"
	"github.com/romangod6/spaceflight-reader/internal/models"
	"github.com/spf13/cobra"
)

const detailWidth = 80

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one article with its full summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid article ID %q", args[0])
			}

			d, err := newDeps(opts, "reader-cli", true)
			if err != nil {
				return err
			}
			defer func() { _ = d.logger.Sync() }()

			article, err := d.service.Article(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, fetcher.ErrNotFound) {
					return fmt.Errorf("article %d not found", id)
				}
				return fmt.Errorf("failed to load article %d: %w", id, err)
			}

			renderArticle(cmd.OutOrStdout(), d.transform.Transform(*article))
			return nil
		},
	}
}

func renderArticle(w io.Writer, a models.DisplayArticle) {
	fmt.Fprintln(w, text.Bold.Sprint(a.Title))

	meta := a.DisplayDate
	if a.NewsSite != "" {
		meta += " · " + a.NewsSite
	}
	fmt.Fprintln(w, text.Faint.Sprint(meta))
	fmt.Fprintln(w)

	if a.Summary != "" {
		fmt.Fprintln(w, text.WrapSoft(a.Summary, detailWidth))
		fmt.Fprintln(w)
	}
	if a.URL != "" {
		fmt.Fprintf(w, "Read more: %s\n", a.URL)
	}
	fmt.Fprintf(w, "Image: %s\n", a.ImageURL)
}
