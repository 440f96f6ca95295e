// Package indexer turns documents into stored, embedded chunks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"unirag/internal/chunker"
	"unirag/internal/config"
	"unirag/internal/domain"
)

// ErrFileTooLarge is returned by IndexFile for files above the size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// recordNamespace scopes content-derived record IDs.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("unirag.records"))

// Config wires the indexer's collaborators.
type Config struct {
	Chunker    *chunker.WindowChunker
	Segmenter  *chunker.Segmenter
	Embedder   domain.Embedder
	Collection domain.Collection
	Extractor  domain.PageExtractor
	Logger     *zap.Logger
	// Workers bounds the number of documents indexed concurrently.
	Workers int
	// Dedup selects record IDs: config.DedupAppend or config.DedupContentHash.
	Dedup string
	// MaxFileSize in bytes; zero disables the check.
	MaxFileSize int64
}

// Report summarizes a directory run.
type Report struct {
	Documents int `json:"documents"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Chunks    int `json:"chunks"`
}

type Indexer struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) (*Indexer, error) {
	switch {
	case cfg.Chunker == nil:
		return nil, errors.New("indexer: chunker is required")
	case cfg.Segmenter == nil:
		return nil, errors.New("indexer: segmenter is required")
	case cfg.Embedder == nil:
		return nil, errors.New("indexer: embedder is required")
	case cfg.Collection == nil:
		return nil, errors.New("indexer: collection is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Dedup == "" {
		cfg.Dedup = config.DedupAppend
	}
	if cfg.Dedup != config.DedupAppend && cfg.Dedup != config.DedupContentHash {
		return nil, domain.NewConfigError("indexing.dedup", "unbekannter Modus %q", cfg.Dedup)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{cfg: cfg, log: log}, nil
}

// IndexDocument segments, chunks, embeds and stores doc and returns the
// number of records written. Chunks that fail to embed, embed to a
// degenerate vector, or fail to store are logged and skipped.
func (ix *Indexer) IndexDocument(ctx context.Context, doc domain.Document) (int, error) {
	log := ix.log.With(zap.String("document", doc.Filename))
	if len(doc.Pages) == 0 {
		log.Warn("document has no extractable pages")
		return 0, nil
	}
	var sections []domain.Section
	for _, page := range doc.Pages {
		sections = append(sections, ix.cfg.Segmenter.Segment(page.Text, page.Number)...)
	}
	chunks := ix.cfg.Chunker.Chunk(sections, doc.Filename, doc.Path)

	written := 0
	for _, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		fields := []zap.Field{zap.Int("page", ch.Metadata.PageNumber), zap.Int("chunk", ch.Metadata.ChunkIndex)}
		emb, err := ix.cfg.Embedder.Embed(ctx, ch.Text)
		if err != nil {
			log.Warn("embedding failed, skipping chunk", append(fields, zap.Error(err))...)
			continue
		}
		if emb.Degenerate {
			log.Warn("degenerate embedding, skipping chunk", append(fields, zap.Error(domain.ErrDegenerateEmbedding))...)
			continue
		}
		rec := domain.Record{
			ID:       ix.recordID(ch),
			Vector:   emb.Vector,
			Text:     ch.Text,
			Metadata: ch.Metadata,
		}
		if err := ix.cfg.Collection.Add(ctx, rec); err != nil {
			log.Warn("store write failed, skipping chunk", append(fields, zap.Error(err))...)
			continue
		}
		written++
	}
	log.Debug("document indexed",
		zap.Int("pages", len(doc.Pages)),
		zap.Int("sections", len(sections)),
		zap.Int("chunks", written))
	return written, nil
}

// IndexFile extracts path and indexes it. Extraction failures wrap
// domain.ErrExtraction.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	if ix.cfg.Extractor == nil {
		return 0, errors.New("indexer: extractor is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if ix.cfg.MaxFileSize > 0 && info.Size() > ix.cfg.MaxFileSize {
		return 0, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrFileTooLarge)
	}
	pages, err := ix.cfg.Extractor.Extract(path)
	if err != nil {
		if !errors.Is(err, domain.ErrExtraction) {
			err = fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}
		return 0, err
	}
	return ix.IndexDocument(ctx, domain.Document{
		Filename: filepath.Base(path),
		Path:     path,
		Pages:    pages,
	})
}

// IndexDirectory indexes every supported file below root. A failing
// document is logged and counted but never aborts the run.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string) (Report, error) {
	var report Report
	if ix.cfg.Extractor == nil {
		return report, errors.New("indexer: extractor is required")
	}
	files, err := ix.discover(root)
	if err != nil {
		return report, err
	}
	ix.log.Info("indexing directory", zap.String("root", root), zap.Int("files", len(files)), zap.Int("workers", ix.cfg.Workers))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(ix.cfg.Workers)
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := ix.IndexFile(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			report.Chunks += n
			switch {
			case errors.Is(err, ErrFileTooLarge):
				report.Skipped++
				ix.log.Warn("skipping file", zap.String("path", path), zap.Error(err))
			case err != nil:
				report.Failed++
				ix.log.Error("failed to index document", zap.String("path", path), zap.Error(err))
			default:
				report.Documents++
				ix.log.Info("indexed document", zap.String("path", path), zap.Int("chunks", n))
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (ix *Indexer) discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("indexer: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("indexer: %s is not a directory", root)
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.log.Warn("cannot read path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && ix.cfg.Extractor.Supports(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (ix *Indexer) recordID(ch domain.Chunk) string {
	if ix.cfg.Dedup != config.DedupContentHash {
		return uuid.NewString()
	}
	m := ch.Metadata
	key := m.Filename + "\x00" + strconv.Itoa(m.PageNumber) + "\x00" + m.Title + "\x00" + ch.Text
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}
