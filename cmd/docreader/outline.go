package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/panel"
	"github.com/dgallion1/docreader/internal/parser"
	"github.com/dgallion1/docreader/internal/tracker"
)

func outlineCMD() *cobra.Command {
	var active string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the outline panel of an article file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			a, err := library.Build(path, data, library.Meta{}, library.BuildOptions{
				WordsPerMinute: cfg.WordsPerMinute,
				Parser:         parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
			})
			if err != nil {
				return err
			}
			if active != "" && !a.Outline.Has(active) {
				return fmt.Errorf("section %q: %w", active, tracker.ErrSectionNotFound)
			}

			view := panel.Build(a.Outline, tracker.ReadingState{ActiveID: active})
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			fmt.Fprintf(out, "%s (%s)\n", a.Title, a.ReadTime)
			if view.Empty() {
				fmt.Fprintln(out, "no sections")
				return nil
			}
			fmt.Fprintln(out, panel.RenderTerminal(view))
			return nil
		},
	}
	cmd.Flags().StringVar(&active, "active", "", "mark this section id as the one being read")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the panel as JSON")
	return cmd
}
