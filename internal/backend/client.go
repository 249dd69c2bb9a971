package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"support-widget/internal/domain"
)

const (
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client envia un turno de la conversacion al backend.
type Client interface {
	Send(ctx context.Context, req domain.Request) (domain.Response, error)
}

// HTTPClient implementa Client con JSON sobre HTTP POST a un unico endpoint.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *HTTPClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewHTTPClient construye el cliente. Un endpoint vacio es un error de configuracion.
func NewHTTPClient(endpoint string, logger *zap.Logger, opts ...Option) (*HTTPClient, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

func (c *HTTPClient) Send(ctx context.Context, in domain.Request) (domain.Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return domain.Response{}, newError(KindProtocol, 0, "marshal request", err)
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Response{}, newError(KindTransport, 0, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("request_id", requestID),
			zap.String("step", in.Step.String()),
			zap.Error(err),
		)
		return domain.Response{}, newError(KindTransport, 0, "do request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Response{}, newError(KindTransport, resp.StatusCode, "read response", err)
	}

	c.logger.Debug("backend response",
		zap.String("request_id", requestID),
		zap.String("step", in.Step.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend error status",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(raw), 256)),
		)
		return domain.Response{}, newError(KindTransport, resp.StatusCode, "unexpected status", nil)
	}

	out, err := DecodeResponse(raw)
	if err != nil {
		c.logger.Warn("backend protocol error", zap.String("request_id", requestID), zap.Error(err))
		return domain.Response{}, err
	}
	return out, nil
}

// DecodeResponse normaliza el cuerpo de la respuesta, desenvolviendo el arreglo
// de un elemento que algunos backends devuelven.
func DecodeResponse(raw []byte) (domain.Response, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Response{}, newError(KindProtocol, 0, "empty body", nil)
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return domain.Response{}, newError(KindProtocol, 0, "invalid json", err)
		}
		if len(items) == 0 {
			return domain.Response{}, newError(KindProtocol, 0, "empty array", nil)
		}
		raw = bytes.TrimSpace(items[0])
	}
	if len(raw) == 0 || raw[0] != '{' {
		return domain.Response{}, newError(KindProtocol, 0, "expected object", nil)
	}

	var out domain.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		reason := "invalid json"
		if errors.Is(err, domain.ErrUnknownStep) {
			reason = "unknown step"
		}
		return domain.Response{}, newError(KindProtocol, 0, reason, err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
