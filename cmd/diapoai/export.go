package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydologie/diapoai/internal/adapters/secondary/dom"
	"github.com/sydologie/diapoai/internal/adapters/secondary/export"
)

var (
	// Export command flags
	exportFormat  string
	exportOutput  string
	exportOutline string
	exportTitle   string
	exportQuality string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <slides.html>",
	Short: "Export generated slides to a file",
	Long: `Build the deck from the slides HTML and write it as a standalone HTML
document, a PowerPoint file, a PDF handout or a zip of PNG thumbnails.

Example:
  diapoai export slides.html --format pptx -o deck.pptx
  diapoai export slides.html --outline outline.yaml --format pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "html", "Export format: "+strings.Join(formatNames(), ", "))
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: the format's file name in the export directory)")
	exportCmd.Flags().StringVar(&exportOutline, "outline", "", "Outline file (.json, .yaml) to structure the slides with")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "Document title (default: the first slide title)")
	exportCmd.Flags().StringVar(&exportQuality, "quality", "", "Thumbnail quality: low, medium or high")
}

func formatNames() []string {
	names := make([]string, 0, 4)
	for _, f := range []export.ExportFormat{export.FormatHTML, export.FormatPPTX, export.FormatPDF, export.FormatImages} {
		names = append(names, string(f))
	}
	return names
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, args[0], nil)
	if err != nil {
		return err
	}
	defer a.close()

	deck, err := a.buildDeck(ctx, a.config.Parser.ExportBackend, args[0], exportOutline)
	if err != nil {
		return err
	}

	service := export.NewService(export.ServiceConfig{
		Export:  a.config.Export,
		Preview: a.config.Preview,
		Clock:   a.clock,
		Parser:  dom.MustParser(a.config.Parser.ExportBackend),
	}, a.logger.Named("export"))

	result, err := service.Export(ctx, deck, &export.ExportOptions{
		Format:     format,
		OutputPath: exportOutput,
		Title:      exportTitle,
		Quality:    exportQuality,
	})
	if err != nil {
		return err
	}

	a.logger.Success("Exported %d slides to %s in %s", deck.SlideCount(), result.OutputPath, result.Duration)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.OutputPath)
	return nil
}
