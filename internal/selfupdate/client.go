// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the update server root. LATEST_VERSION and
	// versions.json are resolved relative to it.
	DefaultBaseURL = "https://yt-dl.org/update/"

	// DefaultHelperDelay is how long the frozen-variant helper waits for the
	// parent process to release its executable before moving the new file in.
	DefaultHelperDelay = 5 * time.Second

	latestVersionFile = "LATEST_VERSION"
	catalogFile       = "versions.json"

	// maxMetadataBytes bounds the LATEST_VERSION and versions.json bodies (1 MB).
	maxMetadataBytes = 1 << 20
)

type (
	// Opener is the HTTP capability the update flow depends on: open a URL
	// and stream its body. The caller closes the returned reader.
	Opener interface {
		Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
	}

	// Config is the fixed configuration of one update attempt. It is built
	// once and passed by value into every operation.
	Config struct {
		BaseURL     string         // Update server root, e.g. "https://yt-dl.org/update/"
		PublicKey   PublicKey      // Key that must have signed versions.json
		Deployment  DeploymentKind // How the running executable was packaged
		HelperDelay time.Duration  // Frozen-variant wait before the helper moves the file
	}

	// Client fetches update metadata and artifacts over HTTP. Transport
	// security is whatever the wrapped http.Client enforces.
	Client struct {
		httpClient *http.Client
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// DefaultConfig returns the configuration of the official update channel.
// The deployment kind comes from the build-time hint (see DetectDeploymentKind).
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		PublicKey:   UpdatePublicKey(),
		Deployment:  DeploymentUnknown,
		HelperDelay: DefaultHelperDelay,
	}
}

// LatestVersionURL is the endpoint of the plain-text latest version marker.
func (c Config) LatestVersionURL() string { return c.endpoint(latestVersionFile) }

// CatalogURL is the endpoint of the signed versions catalog.
func (c Config) CatalogURL() string { return c.endpoint(catalogFile) }

func (c Config) endpoint(name string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + name
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// NewClient creates a Client. Defaults: userAgent="ytdl/dev",
// httpClient=http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  "ytdl/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open performs a GET request and returns the response body as a streaming
// reader. Transport failures and non-200 statuses are reported as ErrNetwork.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request for %s: %w", ErrNetwork, redactURL(rawURL), err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %w", ErrNetwork, redactURL(rawURL), err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: fetching %s: unexpected status %d", ErrNetwork, redactURL(rawURL), resp.StatusCode)
	}

	return resp.Body, nil
}

// readAll opens rawURL and reads at most limit bytes of its body. A body
// longer than limit is an error rather than silently truncated.
func readAll(ctx context.Context, opener Opener, rawURL string, limit int64) ([]byte, error) {
	body, err := opener.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }() // read-only response body

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrNetwork, redactURL(rawURL), err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: response from %s exceeds %d bytes", ErrNetwork, redactURL(rawURL), limit)
	}
	return data, nil
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages, preventing accidental exposure of tokens or sensitive data.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
