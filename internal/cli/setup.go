package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the data, document and log directories",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dirs := []string{cfg.Documents.PDFDir}
	if cfg.Store.Type == "sqlite" && cfg.Store.SQLite != nil {
		dirs = append(dirs, filepath.Dir(cfg.Store.SQLite.Path))
	}
	if cfg.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(cfg.Logging.File))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
		cmd.Printf("%s Verzeichnis bereit: %s\n", mark(true), d)
	}
	cmd.Println()
	cmd.Printf("Legen Sie PDF-Dateien in %s ab und führen Sie \"unirag process\" aus.\n", cfg.Documents.PDFDir)
	return nil
}
