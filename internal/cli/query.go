package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"unirag/internal/domain"
)

var (
	queryLimit int
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a single question",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "number of passages to retrieve (default retrieval.top_k)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	k := queryLimit
	if k <= 0 {
		k = a.cfg.Retrieval.TopK
	}
	res := a.engine.ProcessQuery(ctx, args[0], k)
	if queryJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("das Ergebnis konnte nicht serialisiert werden: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	outputAnswer(cmd, res)
	return nil
}

func outputAnswer(cmd *cobra.Command, res domain.QueryResult) {
	cmd.Println(res.Answer)
	if len(res.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Printf("Verwendete Quellen (%d):\n", len(res.Sources))
	for i, s := range res.Sources {
		cmd.Printf("  [%d] %s - %s (Seite %d, Abschnitt %d)\n", i+1, s.Filename, s.Title, s.PageNumber, s.ChunkIndex)
	}
}
