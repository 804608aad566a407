package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jlonij/dac-web/internal/model"
	"golang.org/x/net/proxy"
)

// maxResponseSize bounds how much of a service response is read.
const maxResponseSize = 16 << 20

// Options configures a Client.
type Options struct {
	// LinkerURL is the entity linker endpoint.
	LinkerURL string

	// NERURL is the named-entity recognition endpoint.
	NERURL string

	// OCRSuffix is appended to an article url to fetch its text.
	OCRSuffix string

	// ProxyAddress routes all requests through a SOCKS5 proxy when set.
	// Credentials may be given as user:password@host:port.
	ProxyAddress string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Logger receives request logs.
	Logger *slog.Logger
}

// Client is an HTTP client for the linker, NER and OCR services.
type Client struct {
	http      *http.Client
	linkerURL string
	nerURL    string
	ocrSuffix string
	userAgent string
	logger    *slog.Logger
}

// NewClient creates a Client. It validates the proxy address but does not
// connect to any service.
func NewClient(opts Options) (*Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	if opts.ProxyAddress != "" {
		dialer, err := socksDialer(opts.ProxyAddress)
		if err != nil {
			return nil, err
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		linkerURL: opts.LinkerURL,
		nerURL:    opts.NERURL,
		ocrSuffix: opts.OCRSuffix,
		userAgent: opts.UserAgent,
		logger:    logger,
	}, nil
}

// socksDialer builds a SOCKS5 dialer from [user:password@]host:port.
func socksDialer(address string) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if at := strings.LastIndex(address, "@"); at >= 0 {
		user, password, _ := strings.Cut(address[:at], ":")
		auth = &proxy.Auth{User: user, Password: password}
		address = address[at+1:]
	}
	if !isValidProxyAddress(address) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", address, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	return dialer, nil
}

// isValidProxyAddress checks that address is host:port with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// LinkedEntity is one entry of the linker's linkedNEs list.
type LinkedEntity struct {
	Text       string            `json:"text,omitempty"`
	Link       string            `json:"link,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Candidates []model.Candidate `json:"candidates,omitempty"`
}

type linkResponse struct {
	LinkedNEs []LinkedEntity `json:"linkedNEs"`
}

type nerResponse struct {
	Entities []model.Entity `json:"entities"`
}

// Predict asks the linker for the mention ne in the article at articleURL.
// With candidates set, the linker also reports the candidates it considered.
func (c *Client) Predict(ctx context.Context, articleURL, ne string, candidates bool) (LinkedEntity, error) {
	params := url.Values{}
	params.Set("url", articleURL)
	params.Set("ne", ne)
	if candidates {
		params.Set("candidates", "true")
	}

	var resp linkResponse
	if err := c.getJSON(ctx, c.linkerURL, params, &resp); err != nil {
		return LinkedEntity{}, fmt.Errorf("linker request failed: %w", err)
	}
	if len(resp.LinkedNEs) == 0 {
		return LinkedEntity{}, ErrEmptyResult
	}
	return resp.LinkedNEs[0], nil
}

// Link returns the linker's prediction for ne.
func (c *Client) Link(ctx context.Context, articleURL, ne string) (model.Prediction, error) {
	le, err := c.Predict(ctx, articleURL, ne, false)
	if err != nil {
		return model.Prediction{}, err
	}
	return model.Prediction{Link: le.Link, Reason: le.Reason}, nil
}

// Candidates returns the candidate links the linker considers for ne.
func (c *Client) Candidates(ctx context.Context, articleURL, ne string) ([]model.Candidate, error) {
	le, err := c.Predict(ctx, articleURL, ne, true)
	if err != nil {
		return nil, err
	}
	return le.Candidates, nil
}

// Entities runs named-entity recognition over the article at articleURL.
func (c *Client) Entities(ctx context.Context, articleURL string) ([]model.Entity, error) {
	params := url.Values{}
	params.Set("url", articleURL)

	var resp nerResponse
	if err := c.getJSON(ctx, c.nerURL, params, &resp); err != nil {
		return nil, fmt.Errorf("NER request failed: %w", err)
	}
	return resp.Entities, nil
}

// ArticleText fetches the OCR of the article at articleURL as plain text.
func (c *Client) ArticleText(ctx context.Context, articleURL string) (string, error) {
	body, err := c.get(ctx, articleURL+c.ocrSuffix)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer body.Close()

	return ExtractText(io.LimitReader(body, maxResponseSize))
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	if endpoint == "" {
		return ErrNotConfigured
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid service URL: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(io.LimitReader(body, maxResponseSize)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// get issues a GET request and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("service request",
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close() //nolint:errcheck // Body already failed the status check
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return resp.Body, nil
}
