package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var processPDFDir string

var errNoChunks = errors.New("es wurden keine Textabschnitte gespeichert")

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Index all documents in the document directory",
	Long: `Extracts, segments, chunks and embeds every PDF and text file below the
document directory and writes the chunks to the vector store.

Fails when not a single chunk could be written.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processPDFDir, "pdf-dir", "", "document directory (default documents.pdf_dir)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := processPDFDir
	if dir == "" {
		dir = a.cfg.Documents.PDFDir
	}
	cmd.Printf("Verarbeite Dokumente in %s ...\n", dir)
	report, err := a.indexer.IndexDirectory(ctx, dir)
	if err != nil {
		return err
	}
	total, err := a.collection.Count(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("%s %d Dokumente verarbeitet, %d Chunks gespeichert\n", mark(report.Chunks > 0), report.Documents, report.Chunks)
	if report.Failed > 0 {
		cmd.Printf("%s %d Dokumente fehlgeschlagen\n", mark(false), report.Failed)
	}
	if report.Skipped > 0 {
		cmd.Printf("%s %d Dokumente übersprungen (zu groß)\n", mark(false), report.Skipped)
	}
	cmd.Printf("Einträge in %s: %d\n", a.collection.Name(), total)
	if report.Chunks == 0 {
		return errNoChunks
	}
	return nil
}
