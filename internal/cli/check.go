package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"unirag/internal/domain"
)

// canaryQuery is asked by "unirag test" once every probe passes.
const canaryQuery = "Wie lange dauert das Masterstudium?"

var errUnhealthy = errors.New("nicht alle Komponenten sind verfügbar")

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the vector store, embedder and Ollama and run a sample query",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st := a.engine.CheckStatus(ctx)
	printStatus(cmd, st)
	if !st.Healthy() {
		return errUnhealthy
	}
	cmd.Println()
	cmd.Printf("Testfrage: %s\n", canaryQuery)
	res := a.engine.ProcessQuery(ctx, canaryQuery, 3)
	cmd.Printf("%s %s\n", mark(res.Success && res.Failure == domain.FailureNone), res.Answer)
	return nil
}

func printStatus(cmd *cobra.Command, st domain.Status) {
	cmd.Printf("%s Vektordatenbank (%d Einträge)\n", mark(st.VectorStore), st.RecordCount)
	cmd.Printf("%s Embedding-Modell\n", mark(st.Embedder))
	cmd.Printf("%s Ollama\n", mark(st.Generator))
}
