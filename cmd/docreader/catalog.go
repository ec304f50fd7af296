package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
)

func catalogCMD() *cobra.Command {
	var contentDir, tag string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List published articles and their tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if contentDir != "" {
				cfg = cfg.WithContentDir(contentDir)
			}
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			lib := library.New(libraryOptions(cfg, log, nil))
			if err := lib.Load(cmd.Context()); err != nil {
				return err
			}

			articles := lib.All()
			if tag != "" {
				articles = lib.ByTag(tag)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, catalogTable(articles))
			fmt.Fprintf(out, "%d articles · tags: %s\n", len(articles), strings.Join(lib.Tags(), ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&contentDir, "content", "", "content directory (overrides CONTENT_DIR)")
	cmd.Flags().StringVar(&tag, "tag", "", "only list articles with this tag")
	return cmd
}

func catalogTable(articles []*library.Article) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("SLUG", "TITLE", "READ TIME", "SECTIONS", "TAGS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, a := range articles {
		t.Row(a.Slug, a.Title, a.ReadTime, fmt.Sprint(a.Outline.Len()), strings.Join(a.Tags, ", "))
	}
	return t.String()
}
