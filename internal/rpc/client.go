package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrInvalidURL means the client could not be constructed.
	ErrInvalidURL = errors.New("invalid server url")
	// ErrTransport means a call did not complete (connection, HTTP status).
	ErrTransport = errors.New("transport failure")
	// ErrRPC means the envelope carried a service-side error.
	ErrRPC = errors.New("server returned an error")
	// ErrDecode means the payload did not have the expected shape.
	ErrDecode = errors.New("decode failure")
)

// ClientConfig holds the settings needed to reach one server.
type ClientConfig struct {
	URL     string
	Timeout time.Duration // 0 disables the per-request timeout
	Headers map[string]string
	Logger  *zap.Logger
}

// Client is an anonymous JSON-RPC 2.0 client. It never retries: the first
// failure of a call is returned to the caller.
type Client struct {
	url  string
	http *resty.Client
	log  *zap.Logger
}

// NewClient validates the server URL and builds a client for it.
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: %v", cfg.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: scheme must be http or https", cfg.URL)
	}
	if u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: missing host", cfg.URL)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if len(cfg.Headers) > 0 {
		hc.SetHeaders(cfg.Headers)
	}

	return &Client{url: cfg.URL, http: hc, log: log}, nil
}

// URL returns the server endpoint this client talks to.
func (c *Client) URL() string { return c.url }

// Call sends one request and returns the decoded envelope. A transport
// failure, a non-200 status, an unparseable envelope, or an envelope error
// are all returned as errors; on success Response.Result holds the payload.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (*Response, error) {
	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s request", method)
	}

	start := time.Now()
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.url)
	latency := time.Since(start)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: %v", method, err)
	}

	c.log.Debug("rpc call",
		zap.String("method", method),
		zap.Int("status", httpResp.StatusCode()),
		zap.Duration("latency", latency))

	if httpResp.StatusCode() != http.StatusOK {
		return nil, errors.Wrapf(ErrTransport, "%s: HTTP %d", method, httpResp.StatusCode())
	}

	var resp Response
	if err := json.Unmarshal(httpResp.Body(), &resp); err != nil {
		return nil, errors.Wrapf(ErrDecode, "%s: invalid JSON response: %v", method, err)
	}
	if resp.Error != nil {
		return nil, errors.WithMessage(resp.Error, method)
	}

	return &resp, nil
}
