package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

var (
	// Inspect command flags
	inspectOutline string
	inspectBackend string
)

// maxTitleWidth truncates long titles in the table
const maxTitleWidth = 48

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <slides.html>",
	Short: "List the slides and content blocks of a deck",
	Long: `Build the deck and print one row per slide with its role, title, the
content blocks the exporters will render and the length of its speaker notes.

Example:
  diapoai inspect slides.html
  diapoai inspect slides.html --outline outline.json --backend xml`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectOutline, "outline", "", "Outline file (.json, .yaml)")
	inspectCmd.Flags().StringVar(&inspectBackend, "backend", "", "DOM backend: html, xml (overrides config)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, args[0], map[string]interface{}{"backend": inspectBackend})
	if err != nil {
		return err
	}
	defer a.close()

	deck, err := a.buildDeck(cmd.Context(), a.config.Parser.ExportBackend, args[0], inspectOutline)
	if err != nil {
		return err
	}

	return printDeckTable(cmd.OutOrStdout(), deck)
}

func printDeckTable(w io.Writer, deck *entities.SlideDocument) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "ID", "Role", "Title", "Blocks", "Notes"})

	for _, slide := range deck.Slides {
		tw.AppendRow(table.Row{
			strconv.Itoa(slide.Index + 1),
			slide.ID,
			string(slide.Role),
			text.Trim(slide.DisplayTitle(), maxTitleWidth),
			blockSummary(slide.Blocks),
			notesMarker(slide.Notes),
		})
	}
	tw.AppendFooter(table.Row{"", "", "", "Slides", strconv.Itoa(deck.SlideCount()), ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func notesMarker(notes string) string {
	if notes == "" {
		return ""
	}
	return strconv.Itoa(len(strings.Fields(notes))) + " words"
}

// blockSummary counts blocks by kind in order of appearance, e.g. "heading, list x2"
func blockSummary(blocks []entities.ContentBlock) string {
	if len(blocks) == 0 {
		return "-"
	}

	counts := make(map[entities.BlockKind]int)
	var order []entities.BlockKind
	for _, b := range blocks {
		if counts[b.Kind] == 0 {
			order = append(order, b.Kind)
		}
		counts[b.Kind]++
	}

	parts := make([]string, 0, len(order))
	for _, kind := range order {
		if n := counts[kind]; n > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", kind, n))
		} else {
			parts = append(parts, string(kind))
		}
	}
	return strings.Join(parts, ", ")
}
