package market

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tidwall/gjson"

	"github.com/napolitain/solver-mutations/internal/models"
)

const (
	DefaultBazaarURL = "https://api.hypixel.net/v2/skyblock/bazaar"

	httpTimeout = 10 * time.Second
	maxRetries  = 3
	backoffBase = 500 * time.Millisecond
	poolSize    = 16
)

var ErrUpstream = errors.New("bazaar upstream error")

// BazaarClient reads quick_status quotes from the public bazaar endpoint
type BazaarClient struct {
	url         string
	client      *http.Client
	retries     int
	backoffBase time.Duration
	products    map[string]string // product id -> item name
	logger      *slog.Logger
}

// BazaarOption configures a BazaarClient
type BazaarOption func(*BazaarClient)

// WithURL points the client at another endpoint
func WithURL(url string) BazaarOption {
	return func(c *BazaarClient) { c.url = url }
}

// WithHTTPClient replaces the pooled HTTP client
func WithHTTPClient(hc *http.Client) BazaarOption {
	return func(c *BazaarClient) { c.client = hc }
}

// WithRetries sets the attempt count and the first backoff delay
func WithRetries(attempts int, base time.Duration) BazaarOption {
	return func(c *BazaarClient) {
		if attempts > 0 {
			c.retries = attempts
		}
		c.backoffBase = base
	}
}

// WithBazaarLogger sets the logger for retry messages
func WithBazaarLogger(l *slog.Logger) BazaarOption {
	return func(c *BazaarClient) { c.logger = l }
}

// NewBazaarClient prices the items in productIDs (name -> bazaar id)
func NewBazaarClient(productIDs map[string]string, opts ...BazaarOption) *BazaarClient {
	c := &BazaarClient{
		url:         DefaultBazaarURL,
		client:      newPooledClient(),
		retries:     maxRetries,
		backoffBase: backoffBase,
		products:    make(map[string]string, len(productIDs)),
		logger:      slog.Default(),
	}
	for name, id := range productIDs {
		c.products[id] = name
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newPooledClient() *http.Client {
	return &http.Client{
		Timeout: httpTimeout,
		Transport: &http.Transport{
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}

// Prices fetches and parses the bazaar snapshot
func (c *BazaarClient) Prices(ctx context.Context) (models.Prices, error) {
	data, err := c.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	return c.parse(data)
}

func (c *BazaarClient) fetchWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase * time.Duration(1<<uint(attempt-1))
			c.logger.Debug("retrying bazaar fetch", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		data, err := c.fetch(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: all %d attempts failed: %v", ErrUpstream, c.retries, lastErr)
}

func (c *BazaarClient) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	// Setting Accept-Encoding ourselves disables the transport's transparent gzip
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	return handleResponse(resp)
}

func handleResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		reader = resp.Body
	}
	return io.ReadAll(bufio.NewReaderSize(reader, 64*1024))
}

// parse extracts quick_status pairs for every known product.
// Products the table knows but the response lacks stay absent, which
// callers read as a zero quote.
func (c *BazaarClient) parse(data []byte) (models.Prices, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUpstream)
	}
	root := gjson.ParseBytes(data)
	if !root.Get("success").Bool() {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, root.Get("cause").String())
	}

	prices := make(models.Prices, len(c.products))
	root.Get("products").ForEach(func(key, product gjson.Result) bool {
		name, ok := c.products[key.String()]
		if !ok {
			return true
		}
		qs := product.Get("quick_status")
		prices[name] = models.PriceQuote{
			BuyPrice:  qs.Get("buyPrice").Float(),
			SellPrice: qs.Get("sellPrice").Float(),
		}
		return true
	})
	return prices, nil
}
