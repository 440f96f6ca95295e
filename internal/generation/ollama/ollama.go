// Package ollama provides the text-generation client backed by Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/ollama/ollama/api"

	"unirag/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1:8b"
	DefaultTimeout = 60 * time.Second
	pingTimeout    = 5 * time.Second
)

// User-facing messages for degraded generations.
const (
	MsgUnreachable = "Fehler: Verbindung zu Ollama fehlgeschlagen. Stellen Sie sicher, dass Ollama läuft."
	MsgTimeout     = "Fehler: Zeitüberschreitung bei der Anfrage an Ollama."
	MsgErrorPrefix = "Fehler bei der Anfrage: "
	MsgNoAnswer    = "Keine Antwort erhalten."
)

// Config holds configuration for the generation client.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	// MaxTokens is sent as num_predict.
	MaxTokens int
	Timeout   time.Duration
}

// Client implements domain.Generator.
type Client struct {
	api         *api.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

var _ domain.Generator = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, domain.NewConfigError("generator.base_url", "ungültige Adresse: %v", err)
	}
	return &Client{
		api:         api.NewClient(base, http.DefaultClient),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}, nil
}

// Generate sends prompt to /api/generate without streaming. It never fails:
// backend problems come back as a Generation whose Text is a German message
// and whose Failure names the cause.
func (c *Client) Generate(ctx context.Context, prompt string) domain.Generation {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}
	var answer strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		answer.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return classify(err)
	}
	text := strings.TrimSpace(answer.String())
	if text == "" {
		text = MsgNoAnswer
	}
	return domain.Generation{Text: text}
}

// Ping checks that the server answers /api/version.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.api.Version(ctx); err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	return nil
}

func classify(err error) domain.Generation {
	switch {
	case isTimeout(err):
		return domain.Generation{
			Text:    MsgTimeout,
			Failure: domain.FailureBackendTimeout,
			Err:     fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err),
		}
	case isUnreachable(err):
		return domain.Generation{
			Text:    MsgUnreachable,
			Failure: domain.FailureBackendUnreachable,
			Err:     fmt.Errorf("%w: %v", domain.ErrBackendUnreachable, err),
		}
	default:
		return domain.Generation{
			Text:    MsgErrorPrefix + err.Error(),
			Failure: domain.FailureBackendError,
			Err:     fmt.Errorf("%w: %v", domain.ErrBackend, err),
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
