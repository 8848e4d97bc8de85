// Package classifier talks to remote image-labeling endpoints.
//
// A call never fails from the caller's point of view: transport errors,
// non-2xx statuses and malformed bodies all collapse into an empty Result
// whose Err field records the cause, and a diagnostic line is logged.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults for the wire protocol.
const (
	DefaultPath      = "/analyze"
	DefaultFormField = "imageUrl"
	DefaultTimeout   = 30 * time.Second

	maxBodySize = 4 << 20
)

var (
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("classifier: unexpected status")
	// ErrMalformed wraps bodies that do not match the label schema.
	ErrMalformed = errors.New("classifier: malformed response")
)

// Label is one (name, confidence) pair returned by an endpoint.
type Label struct {
	Name       string  `json:"Name"`
	Confidence float64 `json:"Confidence,omitempty"`
}

// Result is the outcome of one classification call.
type Result struct {
	Labels  []Label
	Err     error
	Latency time.Duration
}

// Failed reports whether the call degraded to an empty result.
func (r Result) Failed() bool { return r.Err != nil }

// Names returns the label names in response order.
func (r Result) Names() []string {
	out := make([]string, 0, len(r.Labels))
	for _, l := range r.Labels {
		out = append(out, l.Name)
	}
	return out
}

// Classifier labels one input using one endpoint.
type Classifier interface {
	Classify(ctx context.Context, endpoint, input string) Result
}

// Config configures the HTTP client.
type Config struct {
	Path      string
	FormField string
	// Timeout bounds a single call; zero disables it.
	Timeout time.Duration
}

// DefaultConfig returns the wire defaults.
func DefaultConfig() Config {
	return Config{
		Path:      DefaultPath,
		FormField: DefaultFormField,
		Timeout:   DefaultTimeout,
	}
}

// Client is the HTTP implementation of Classifier.
type Client struct {
	config Config
	http   *http.Client
	schema *Schema
	logger *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a classifier client.
func NewClient(config Config, logger *zap.Logger, opts ...Option) *Client {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.FormField == "" {
		config.FormField = DefaultFormField
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		config: config,
		http:   &http.Client{},
		schema: NewSchema(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify sends one request and never returns an error: failures are
// logged and reported through Result.Err.
func (c *Client) Classify(ctx context.Context, endpoint, input string) Result {
	start := time.Now()
	found, err := c.do(ctx, endpoint, input)
	res := Result{Labels: found, Err: err, Latency: time.Since(start)}

	if err != nil {
		res.Labels = nil
		c.logger.Error(fmt.Sprintf("Error on %s with input %s: %v", endpoint, input, err),
			zap.String("endpoint", endpoint),
			zap.String("input", input),
			zap.Duration("latency", res.Latency),
		)
	}
	return res
}

func (c *Client) do(ctx context.Context, endpoint, input string) ([]Label, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set(c.config.FormField, input)

	target := strings.TrimRight(endpoint, "/") + c.config.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := c.schema.Validate(body); err != nil {
		return nil, err
	}

	var found []Label
	if err := json.Unmarshal(body, &found); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return found, nil
}
