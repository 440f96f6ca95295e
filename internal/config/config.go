package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"unirag/internal/domain"
)

// AppSettings holds descriptive application settings.
type AppSettings struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `yaml:"debug"`
}

// SQLiteConfig configures the embedded SQLite vector store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	APIKey      string `yaml:"api_key"`
	UseTLS      bool   `yaml:"use_tls"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the vector store implementation.
type StoreConfig struct {
	Type       string        `yaml:"type"`
	Collection string        `yaml:"collection"`
	SQLite     *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// OllamaEmbedderConfig configures embeddings served by Ollama.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig configures the text-generation backend.
type GeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// DocumentsConfig configures discovery, segmentation and chunking.
type DocumentsConfig struct {
	PDFDir          string   `yaml:"pdf_dir"`
	ChunkSize       int      `yaml:"chunk_size"`
	ChunkOverlap    int      `yaml:"chunk_overlap"`
	MaxFileSizeMB   int      `yaml:"max_file_size_mb"`
	MinSectionWords int      `yaml:"min_section_words"`
	Headings        []string `yaml:"headings"`
}

// IndexingConfig configures the indexing run.
type IndexingConfig struct {
	Workers int    `yaml:"workers"`
	Dedup   string `yaml:"dedup"`
}

// RetrievalConfig configures query-time retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	App       AppSettings     `yaml:"app"`
	Store     StoreConfig     `yaml:"store"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Documents DocumentsConfig `yaml:"documents"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

const (
	DedupAppend      = "append"
	DedupContentHash = "content_hash"
)

// DefaultHeadings are the section keywords of the regulation documents this
// system was built for, in German and English.
var DefaultHeadings = []string{
	"Modulname", "Modul", "Inhalt", "Ziele", "Leistungspunkte", "Dauer",
	"Voraussetzungen", "Studienleistungen", "Empfohlene Literatur", "Prüfungen", "Lehrformen",
	"Module", "Content", "Objectives", "Credit points", "Duration",
	"Prerequisites", "Coursework", "Recommended literature", "Examinations", "Teaching formats",
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/unirag/config.yaml.
// If neither exists, it writes defaults to ~/.config/unirag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "unirag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		App: AppSettings{Name: "Universität Leipzig RAG Chat", Version: "1.0.0"},
		Store: StoreConfig{
			Type:       "sqlite",
			Collection: "university_regulations",
			SQLite:     &SQLiteConfig{Path: "./data/vectors.db"},
		},
		Embedder: EmbedderConfig{Type: "hashing", Dimension: 300},
		Generator: GeneratorConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.1:8b",
			Temperature: 0.1,
			MaxTokens:   2048,
			TimeoutSecs: 60,
		},
		Documents: DocumentsConfig{
			PDFDir:          "./data/pdfs",
			ChunkSize:       500,
			ChunkOverlap:    50,
			MaxFileSizeMB:   50,
			MinSectionWords: 10,
			Headings:        append([]string(nil), DefaultHeadings...),
		},
		Indexing:  IndexingConfig{Workers: 1, Dedup: DedupAppend},
		Retrieval: RetrievalConfig{TopK: 5},
		Logging:   LoggingConfig{Level: "info", File: "./logs/unirag.log"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.SQLite == nil {
		cfg.Store.SQLite = &SQLiteConfig{Path: "./data/vectors.db"}
	}
	if cfg.Store.Type == "qdrant" {
		if cfg.Store.Qdrant == nil {
			cfg.Store.Qdrant = &QdrantConfig{}
		}
		if cfg.Store.Qdrant.Host == "" {
			cfg.Store.Qdrant.Host = "localhost"
		}
		if cfg.Store.Qdrant.Port == 0 {
			cfg.Store.Qdrant.Port = 6334
		}
		if cfg.Store.Qdrant.TimeoutSecs == 0 {
			cfg.Store.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = cfg.Generator.BaseURL
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 5
		}
	}
	if len(cfg.Documents.Headings) == 0 {
		cfg.Documents.Headings = append([]string(nil), DefaultHeadings...)
	}
	if cfg.Indexing.Dedup == "" {
		cfg.Indexing.Dedup = DedupAppend
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		port := os.Getenv("OLLAMA_PORT")
		if port == "" {
			port = "11434"
		}
		if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
			cfg.Generator.BaseURL = host
		} else {
			cfg.Generator.BaseURL = fmt.Sprintf("http://%s:%s", host, port)
		}
		if cfg.Embedder.Ollama != nil {
			cfg.Embedder.Ollama.BaseURL = cfg.Generator.BaseURL
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("UNIRAG_DB_PATH"); path != "" {
		if cfg.Store.SQLite == nil {
			cfg.Store.SQLite = &SQLiteConfig{}
		}
		cfg.Store.SQLite.Path = path
	}
	if host := os.Getenv("QDRANT_HOST"); host != "" && cfg.Store.Qdrant != nil {
		cfg.Store.Qdrant.Host = host
	}
}

// Validate checks the settings that must hold before any component starts.
func (c *AppConfig) Validate() error {
	var errs []error
	d := c.Documents
	if d.ChunkSize < 1 {
		errs = append(errs, domain.NewConfigError("documents.chunk_size", "muss positiv sein, ist %d", d.ChunkSize))
	}
	if d.ChunkOverlap < 0 {
		errs = append(errs, domain.NewConfigError("documents.chunk_overlap", "darf nicht negativ sein, ist %d", d.ChunkOverlap))
	}
	if d.ChunkOverlap >= d.ChunkSize {
		errs = append(errs, domain.NewConfigError("documents.chunk_overlap", "muss kleiner als chunk_size sein (%d >= %d)", d.ChunkOverlap, d.ChunkSize))
	}
	if d.MinSectionWords < 0 {
		errs = append(errs, domain.NewConfigError("documents.min_section_words", "darf nicht negativ sein"))
	}
	if len(d.Headings) == 0 {
		errs = append(errs, domain.NewConfigError("documents.headings", "mindestens ein Überschriften-Schlüsselwort ist erforderlich"))
	}
	switch c.Store.Type {
	case "sqlite":
		if c.Store.SQLite == nil || c.Store.SQLite.Path == "" {
			errs = append(errs, domain.NewConfigError("store.sqlite.path", "wird für den SQLite-Speicher benötigt"))
		}
	case "qdrant":
		if c.Store.Qdrant == nil || c.Store.Qdrant.Host == "" {
			errs = append(errs, domain.NewConfigError("store.qdrant.host", "wird für den Qdrant-Speicher benötigt"))
		}
	case "memory":
	default:
		errs = append(errs, domain.NewConfigError("store.type", "unbekannte Vektordatenbank %q", c.Store.Type))
	}
	if strings.TrimSpace(c.Store.Collection) == "" {
		errs = append(errs, domain.NewConfigError("store.collection", "muss gesetzt sein"))
	}
	switch c.Embedder.Type {
	case "hashing":
		if c.Embedder.Dimension < 1 {
			errs = append(errs, domain.NewConfigError("embedder.dimension", "muss positiv sein, ist %d", c.Embedder.Dimension))
		}
	case "ollama":
		if c.Embedder.Ollama == nil || c.Embedder.Ollama.Model == "" {
			errs = append(errs, domain.NewConfigError("embedder.ollama.model", "wird für das Ollama-Embedding benötigt"))
		}
	case "openai":
		if c.Embedder.OpenAI == nil || c.Embedder.OpenAI.Model == "" {
			errs = append(errs, domain.NewConfigError("embedder.openai.model", "wird für das OpenAI-Embedding benötigt"))
		}
	default:
		errs = append(errs, domain.NewConfigError("embedder.type", "unbekanntes Embedding-Modell %q", c.Embedder.Type))
	}
	if c.Generator.BaseURL == "" {
		errs = append(errs, domain.NewConfigError("generator.base_url", "muss gesetzt sein"))
	}
	if c.Generator.Model == "" {
		errs = append(errs, domain.NewConfigError("generator.model", "muss gesetzt sein"))
	}
	if c.Generator.TimeoutSecs < 1 {
		errs = append(errs, domain.NewConfigError("generator.timeout_secs", "muss positiv sein"))
	}
	if c.Indexing.Workers < 1 {
		errs = append(errs, domain.NewConfigError("indexing.workers", "muss mindestens 1 sein, ist %d", c.Indexing.Workers))
	}
	if c.Indexing.Dedup != DedupAppend && c.Indexing.Dedup != DedupContentHash {
		errs = append(errs, domain.NewConfigError("indexing.dedup", "muss %q oder %q sein", DedupAppend, DedupContentHash))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, domain.NewConfigError("retrieval.top_k", "muss positiv sein"))
	}
	return errors.Join(errs...)
}
