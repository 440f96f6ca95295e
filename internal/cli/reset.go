package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all indexed chunks",
	Long: `Deletes the configured vector store collection. Run "unirag process"
afterwards to rebuild the index.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	name := a.cfg.Store.Collection
	n, err := a.collection.Count(ctx)
	if err != nil {
		return err
	}
	if !resetYes {
		cmd.Printf("Sammlung %q mit %d Einträgen löschen? [j/N] ", name, n)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "j", "ja", "y", "yes":
		default:
			cmd.Println("Abgebrochen.")
			return nil
		}
	}
	if err := a.storage.DeleteCollection(ctx, name); err != nil {
		return err
	}
	cmd.Printf("%s Sammlung %q gelöscht (%d Einträge)\n", mark(true), name, n)
	return nil
}
