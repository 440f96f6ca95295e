// Package cli implements the unirag command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unirag/internal/chunker"
	"unirag/internal/config"
	"unirag/internal/domain"
	"unirag/internal/embedding"
	"unirag/internal/extract"
	"unirag/internal/generation/ollama"
	"unirag/internal/indexer"
	"unirag/internal/logging"
	"unirag/internal/service"
	"unirag/internal/vectorstore"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "unirag",
	Short: "Question answering over university regulation documents",
	Long: `unirag indexes study and examination regulations and answers questions
about them with a locally running language model.

Run "unirag setup" once, put PDF files into the configured directory,
index them with "unirag process" and start chatting with "unirag start".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/unirag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. Command output goes to stdout, logs to stderr.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
)

func mark(ok bool) string {
	if ok {
		return okMark("✓")
	}
	return failMark("✗")
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("die Konfiguration konnte nicht geladen werden: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired components for one command invocation.
type app struct {
	cfg        *config.AppConfig
	log        *zap.Logger
	storage    domain.Storage
	collection domain.Collection
	embedder   domain.Embedder
	generator  *ollama.Client
	engine     *service.Engine
	indexer    *indexer.Indexer
	closeLog   func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, err
	}
	a, err := wire(ctx, cfg, log)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	a.closeLog = closeLog
	return a, nil
}

func wire(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*app, error) {
	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("das Embedding-Modell ist nicht verfügbar: %w", err)
	}
	storage, err := vectorstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("die Vektordatenbank ist nicht verfügbar: %w", err)
	}
	coll, err := storage.GetOrCreateCollection(ctx, cfg.Store.Collection)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("die Vektordatenbank ist nicht verfügbar: %w", err)
	}
	gen, err := ollama.New(ollama.Config{
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	ch, err := chunker.NewWindowChunker(cfg.Documents.ChunkSize, cfg.Documents.ChunkOverlap)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	seg, err := chunker.NewSegmenter(chunker.SegmenterConfig{
		Headings: cfg.Documents.Headings,
		MinWords: cfg.Documents.MinSectionWords,
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	ix, err := indexer.New(indexer.Config{
		Chunker:     ch,
		Segmenter:   seg,
		Embedder:    emb,
		Collection:  coll,
		Extractor:   extract.NewManager(),
		Logger:      log,
		Workers:     cfg.Indexing.Workers,
		Dedup:       cfg.Indexing.Dedup,
		MaxFileSize: int64(cfg.Documents.MaxFileSizeMB) << 20,
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	engine := service.NewEngine(service.NewRetriever(emb, coll), gen, coll, emb, log)
	log.Debug("components ready",
		zap.String("store", cfg.Store.Type),
		zap.String("collection", cfg.Store.Collection),
		zap.String("embedder", emb.Name()),
		zap.String("model", cfg.Generator.Model))
	return &app{
		cfg:        cfg,
		log:        log,
		storage:    storage,
		collection: coll,
		embedder:   emb,
		generator:  gen,
		engine:     engine,
		indexer:    ix,
	}, nil
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		a.log.Warn("closing vector store", zap.Error(err))
	}
	_ = a.closeLog()
}
