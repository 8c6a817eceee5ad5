package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-predictform/internal/logging"
)

const (
	// DefaultPath is appended to the base URL.
	DefaultPath = "/predict"

	defaultUserAgent = "go-predictform"
	maxBodyBytes     = 1 << 20
)

// Predictor sends one prediction request.
type Predictor interface {
	Predict(ctx context.Context, req Request) (Response, error)
}

// PredictorFunc adapts a function into a Predictor.
type PredictorFunc func(ctx context.Context, req Request) (Response, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// RequestValidator checks an outgoing payload before it is sent.
type RequestValidator interface {
	ValidateRequest(payload any) error
}

// HTTPClient posts requests to a prediction service over HTTP.
type HTTPClient struct {
	baseURL   string
	path      string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	contract  RequestValidator
	logger    logging.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient uses a copy of client for requests. Timeout and proxy
// options applied after it change the copy, never the caller's client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			copied := *client
			c.client = &copied
		}
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *HTTPClient) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = agent
		}
	}
}

// WithPath overrides the endpoint path appended to the base URL.
func WithPath(path string) Option {
	return func(c *HTTPClient) {
		if path = strings.TrimSpace(path); path != "" {
			c.path = "/" + strings.TrimPrefix(path, "/")
		}
	}
}

// WithProxy routes requests through explicit proxies, falling back to the
// environment when both are empty.
func WithProxy(httpProxy, httpsProxy string) Option {
	return func(c *HTTPClient) {
		transport, ok := c.client.Transport.(*http.Transport)
		if !ok || transport == nil {
			transport = http.DefaultTransport.(*http.Transport).Clone()
		} else {
			transport = transport.Clone()
		}
		transport.Proxy = NewProxyFunc(httpProxy, httpsProxy)
		c.client.Transport = transport
	}
}

// WithLimiter throttles outgoing requests.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *HTTPClient) {
		c.limiter = limiter
	}
}

// WithRateLimit throttles outgoing requests to rps per second with the given
// burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithContract validates every payload against the contract before sending.
func WithContract(contract RequestValidator) Option {
	return func(c *HTTPClient) {
		c.contract = contract
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger logging.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = logging.OrNop(logger)
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("predict: base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("predict: parse base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("predict: base URL %q must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:   base,
		path:      DefaultPath,
		client:    &http.Client{},
		userAgent: defaultUserAgent,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Endpoint returns the full URL requests are posted to.
func (c *HTTPClient) Endpoint() string {
	return c.baseURL + c.path
}

// Predict posts req and reads the diagnosis.
func (c *HTTPClient) Predict(ctx context.Context, req Request) (Response, error) {
	if c.contract != nil {
		if err := c.contract.ValidateRequest(req); err != nil {
			return Response{}, &ContractError{Err: err}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, &ContractError{Err: fmt.Errorf("encode request: %w", err)}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, &TransportError{Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("predict: POST %s", c.Endpoint())
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if noResponse(ctx, err) {
			return Response{}, &ResponseError{Status: 0, Err: err}
		}
		return Response{}, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("predict: HTTP %d (%d bytes)", resp.StatusCode, len(payload))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &ResponseError{Status: resp.StatusCode, Body: payload}
	}
	return ParseResponse(payload)
}

// noResponse reports whether err means the server took the connection and
// hung up without answering.
func noResponse(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET)
}

// NewProxyFunc creates a proxy function. Without explicit proxies it falls
// back to the environment.
func NewProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
