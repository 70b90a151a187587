package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

var (
	// Structure command flags
	structureOutline string
	structureOutput  string
	structureFormat  string
	structureBackend string
)

// structureCmd represents the structure command
var structureCmd = &cobra.Command{
	Use:   "structure <slides.html>",
	Short: "Print the structured and normalized slides",
	Long: `Run the slides through the pipeline and print the canonical markup:
one section per slide, grouped by the outline when one is given. Use "-" to
read the slides from standard input.

Example:
  diapoai structure slides.html --outline outline.json
  cat answer.html | diapoai structure - --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)

	structureCmd.Flags().StringVar(&structureOutline, "outline", "", "Outline file (.json, .yaml)")
	structureCmd.Flags().StringVarP(&structureOutput, "output", "o", "", "Write to a file instead of standard output")
	structureCmd.Flags().StringVar(&structureFormat, "format", "html", "Output format: html, json")
	structureCmd.Flags().StringVar(&structureBackend, "backend", "", "DOM backend: html, xml (overrides config)")
}

func runStructure(cmd *cobra.Command, args []string) error {
	if structureFormat != "html" && structureFormat != "json" {
		return fmt.Errorf("unknown format %q (must be html or json)", structureFormat)
	}

	a, err := newApp(cmd, args[0], map[string]interface{}{"backend": structureBackend})
	if err != nil {
		return err
	}
	defer a.close()

	deck, err := a.buildDeck(cmd.Context(), a.config.Parser.ExportBackend, args[0], structureOutline)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if structureOutput != "" {
		f, err := os.Create(structureOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	return writeDeck(out, deck, structureFormat)
}

func writeDeck(w io.Writer, deck *entities.SlideDocument, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(deck)
	}
	_, err := fmt.Fprintln(w, deck.HTML)
	return err
}
