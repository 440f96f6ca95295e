package cli

import (
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"unirag/internal/extract"
)

var pagesPDFDir string

var countPagesCmd = &cobra.Command{
	Use:   "count-pages",
	Short: "Count the pages of every document in the document directory",
	Args:  cobra.NoArgs,
	RunE:  runCountPages,
}

func init() {
	countPagesCmd.Flags().StringVar(&pagesPDFDir, "pdf-dir", "", "document directory (default documents.pdf_dir)")
	rootCmd.AddCommand(countPagesCmd)
}

func runCountPages(cmd *cobra.Command, _ []string) error {
	dir := pagesPDFDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Documents.PDFDir
	}
	ex := extract.NewManager()
	var files, pages int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !ex.Supports(path) {
			return nil
		}
		n, err := ex.CountPages(path)
		if err != nil {
			cmd.Printf("%s %s: Seitenzahl nicht lesbar (%v)\n", mark(false), path, err)
			return nil
		}
		files++
		pages += n
		rel, _ := filepath.Rel(dir, path)
		cmd.Printf("%5d  %s\n", n, rel)
		return nil
	})
	if err != nil {
		return err
	}
	cmd.Printf("Gesamt: %d Seiten in %d Dokumenten\n", pages, files)
	return nil
}
