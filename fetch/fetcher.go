// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Page is the extracted content of a fetched URL.
type Page struct {
	Title   string
	Content string
}

// Fetcher retrieves a URL and extracts its readable content.
type Fetcher interface {
	// Fetch downloads the page at url and extracts title and body text.
	// Errors are classified via the package's typed errors; use
	// IsRetryable to decide whether a retry is worthwhile.
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Config configures the HTTP fetcher.
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string

	// Client overrides the default HTTP client. Used by tests.
	Client *http.Client
}

// Option configures the HTTP fetcher.
type Option func(*Config)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxBytes caps the response body size.
func WithMaxBytes(maxBytes int64) Option {
	return func(c *Config) {
		c.MaxBytes = maxBytes
	}
}

// WithUserAgent sets the User-Agent header sent with requests.
func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.Client = client
	}
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "linkmind/1.0"
	}
}

// HTTPFetcher implements Fetcher over plain HTTP GET.
// HTML responses are sanitized and converted to markdown; the markdown
// keeps enough structure (headings, lists, tables) to help the
// summarizer without feeding it raw markup.
type HTTPFetcher struct {
	client      *http.Client
	config      Config
	sanitizer   *bluemonday.Policy
	mdConverter *converter.Converter
}

// NewHTTPFetcher creates a fetcher with redirect limiting and body caps.
func NewHTTPFetcher(options ...Option) *HTTPFetcher {
	var config Config
	for _, option := range options {
		option(&config)
	}
	config.defaults()

	client := config.Client
	if client == nil {
		client = &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		}
	}

	return &HTTPFetcher{
		client:    client,
		config:    config,
		sanitizer: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	return f.extract(url, body)
}

// classifyStatus maps HTTP status codes onto the package's typed errors.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d", ErrRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: http %d", ErrServerError, status)
	default:
		// Remaining 4xx and odd 3xx codes will not improve on retry.
		return fmt.Errorf("%w: http %d", ErrContentUnavailable, status)
	}
}

// extract reduces an HTML document to title plus markdown body.
func (f *HTTPFetcher) extract(url string, body []byte) (*Page, error) {
	title, plainText := parseDocument(body)

	sanitized := f.sanitizer.SanitizeBytes(body)

	content := ""
	if markdown, err := f.mdConverter.ConvertString(string(sanitized), converter.WithDomain(url)); err == nil {
		content = strings.TrimSpace(markdown)
	}
	if content == "" {
		// Conversion produced nothing usable, fall back to plain text.
		content = plainText
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if title == "" {
		title = url
	}

	return &Page{Title: title, Content: content}, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
