package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bsi-games/bsi/internal/metrics"
	"github.com/bsi-games/bsi/internal/model"
)

// ErrDecoratorConflict is returned by Install while another handle is active
var ErrDecoratorConflict = errors.New("decorator already installed")

// CredentialSource supplies the credential at request time
type CredentialSource interface {
	Get() *model.Credential
}

// Config holds gateway configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns default gateway configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:3000",
		Timeout: 30 * time.Second,
	}
}

// Gateway performs game and roster requests against the game service
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	active *Handle
}

// New creates a gateway
func New(cfg Config, logger *slog.Logger) *Gateway {
	return NewWithClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithClient creates a gateway using the given HTTP client
func NewWithClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Gateway {
	return &Gateway{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "gateway")),
	}
}

// Handle is an installed decorator. Remove detaches it.
type Handle struct {
	gw     *Gateway
	source CredentialSource
	once   sync.Once
}

// Install attaches the credential decorator. Only one may be active at a time.
func (g *Gateway) Install(source CredentialSource) (*Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return nil, ErrDecoratorConflict
	}
	h := &Handle{gw: g, source: source}
	g.active = h
	g.logger.Debug("decorator installed")
	return h, nil
}

// Remove detaches the decorator. Calling it again is a no-op.
func (h *Handle) Remove() {
	h.once.Do(func() {
		h.gw.mu.Lock()
		defer h.gw.mu.Unlock()
		if h.gw.active == h {
			h.gw.active = nil
			h.gw.logger.Debug("decorator removed")
		}
	})
}

// Installed reports whether a decorator is active
func (g *Gateway) Installed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active != nil
}

func (g *Gateway) decorate(req *http.Request) {
	g.mu.Lock()
	h := g.active
	g.mu.Unlock()

	if h == nil {
		return
	}
	cred := h.source.Get()
	if cred == nil {
		return
	}
	req.Header.Set("Authorization", cred.Header())
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Expires", "0")
}

// do performs a request and decodes a successful JSON body into result
func (g *Gateway) do(ctx context.Context, op, method, path, rawQuery string, body, result any) error {
	start := time.Now()
	err := g.roundTrip(ctx, op, method, path, rawQuery, body, result)
	metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := "ok"
	var f *Failure
	if errors.As(err, &f) {
		outcome = f.Kind.String()
	}
	metrics.GatewayRequests.WithLabelValues(op, outcome).Inc()

	if err != nil {
		g.logger.Debug("request failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return err
}

func (g *Gateway) roundTrip(ctx context.Context, op, method, path, rawQuery string, body, result any) error {
	url := g.baseURL + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	g.decorate(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &Failure{Kind: KindTransport, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Failure{Kind: KindTransport, Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &Failure{Kind: KindUnauthorized, Op: op, Status: resp.StatusCode, Reason: rawReason(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Failure{Kind: KindRejected, Op: op, Status: resp.StatusCode, Reason: rawReason(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Failure{Kind: KindMalformed, Op: op, Status: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// rawReason keeps the response body when it is JSON
func rawReason(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		return nil
	}
	return json.RawMessage(body)
}
