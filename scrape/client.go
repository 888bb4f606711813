// Package scrape fetches public pages and pulls media out of their markup.
// It backs the fallback stages that run when a primary extraction fails.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// maxBodyBytes caps how much of a page is read into memory. Media pages
// that matter here are well under this.
const maxBodyBytes = 8 << 20

type ClientOptions struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	Proxy          string
}

// Client is an http.Client wrapper that applies browser-like headers to
// every request. Sites served to scripts without them return stripped-down
// markup with no media tags.
type Client struct {
	http *http.Client
	opts ClientOptions
	log  *zap.SugaredLogger
}

func NewClient(opts ClientOptions, log *zap.SugaredLogger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	transport := http.DefaultTransport
	if opts.Proxy != "" {
		if proxied, err := proxyTransport(opts.Proxy); err == nil {
			transport = proxied
		} else {
			log.Warnw("ignoring invalid proxy", "proxy", opts.Proxy, "error", err)
		}
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts: opts,
		log:  log.Named("scrape"),
	}
}

// Fetch GETs rawURL and returns at most maxBodyBytes of the body. A non-2xx
// status is an error.
func (c *Client) Fetch(ctx context.Context, rawURL string, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, referer)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ResolveRedirect follows rawURL one hop and returns the Location it
// redirects to, or rawURL itself when the response is not a redirect.
func (c *Client) ResolveRedirect(ctx context.Context, rawURL string) (string, error) {
	noFollow := &http.Client{
		Timeout:   c.opts.Timeout,
		Transport: c.http.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req, "")
	resp, err := noFollow.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	if location := resp.Header.Get("Location"); location != "" {
		return location, nil
	}
	return rawURL, nil
}

func (c *Client) setHeaders(req *http.Request, referer string) {
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.opts.AcceptLanguage)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}

func proxyTransport(proxy string) (http.RoundTripper, error) {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, err
	}
	if proxyURL.Scheme == "" || proxyURL.Host == "" {
		return nil, fmt.Errorf("proxy %q has no scheme or host", proxy)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)
	return transport, nil
}
