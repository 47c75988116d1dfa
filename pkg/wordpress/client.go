// Package wordpress pushes normalized posts to WordPress, either through the core REST API
// with an Application Password or through the companion site plugin with an API key.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/transcode"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/urlsafety"
)

const (
	defaultLookupTimeout   = 10 * time.Second
	defaultUploadTimeout   = 60 * time.Second
	defaultDownloadTimeout = 30 * time.Second

	pluginKeyHeader = "X-StackSERP-Key"
)

// DefaultPluginNamespaces lists the companion plugin REST namespaces, current name first.
var DefaultPluginNamespaces = []string{"stackserp/v1", "seo-autopilot/v1"}

// Options configures a Client. Zero values fall back to production defaults.
type Options struct {
	HTTP             httpclient.Client
	Guard            urlsafety.Guard
	Logger           logger.Logger
	Render           func(markdown string) (string, error)
	LookupTimeout    time.Duration
	UploadTimeout    time.Duration
	DownloadTimeout  time.Duration
	PluginNamespaces []string
}

// Client talks to WordPress sites. It keeps no per-site state and is safe for concurrent use.
type Client struct {
	http            httpclient.Client
	guard           urlsafety.Guard
	log             logger.Logger
	render          func(string) (string, error)
	lookupTimeout   time.Duration
	uploadTimeout   time.Duration
	downloadTimeout time.Duration
	namespaces      []string
}

// New builds a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		http:            opts.HTTP,
		guard:           opts.Guard,
		log:             logger.Ensure(opts.Logger),
		render:          opts.Render,
		lookupTimeout:   opts.LookupTimeout,
		uploadTimeout:   opts.UploadTimeout,
		downloadTimeout: opts.DownloadTimeout,
		namespaces:      opts.PluginNamespaces,
	}
	if c.http == nil {
		c.http = httpclient.New(httpclient.Options{
			Timeout:       defaultUploadTimeout,
			RedirectCheck: urlsafety.New(nil).Check,
			DialControl:   urlsafety.DialControl,
		})
	}
	if c.guard == nil {
		c.guard = urlsafety.New(nil)
	}
	if c.render == nil {
		c.render = transcode.MarkdownToHTML
	}
	if c.lookupTimeout <= 0 {
		c.lookupTimeout = defaultLookupTimeout
	}
	if c.uploadTimeout <= 0 {
		c.uploadTimeout = defaultUploadTimeout
	}
	if c.downloadTimeout <= 0 {
		c.downloadTimeout = defaultDownloadTimeout
	}
	if len(c.namespaces) == 0 {
		c.namespaces = DefaultPluginNamespaces
	}
	return c
}

// site is a validated WordPress base URL plus the auth used for every call of one operation.
type site struct {
	base string
	auth *httpclient.BasicAuth
}

func (s site) api(path string) string { return s.base + "/wp-json" + path }

func (s site) editURL(id int64) string {
	return fmt.Sprintf("%s/wp-admin/post.php?post=%d&action=edit", s.base, id)
}

// openSite normalizes and vets the base URL. Nothing is sent before this passes.
func (c *Client) openSite(ctx context.Context, rawBase string) (site, error) {
	base := normalizeBaseURL(rawBase)
	if base == "" {
		return site{}, domain.Fail(domain.KindValidation, "WordPress site URL is empty")
	}
	if err := c.guard.Check(ctx, base); err != nil {
		return site{}, domain.FailWith(domain.KindValidation, err,
			"site URL %s is not allowed: it must be a public http(s) address", base)
	}
	return site{base: base}, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return base
}

// transportFailure reports a request that never produced an HTTP response.
func transportFailure(s site, action string, err error) *domain.Failure {
	return domain.FailWith(domain.KindTransport, err,
		"could not reach WordPress at %s while %s; check the site URL and that the site is online", s.base, action)
}

// responseFailure classifies a non-2xx response.
func responseFailure(resp httpclient.Response, action string) *domain.Failure {
	status := resp.StatusCode()
	remote := remoteMessage(resp.Body())
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		msg := fmt.Sprintf("WordPress rejected the credentials while %s (status %d); check the username and application password and that the user can publish posts", action, status)
		if remote != "" {
			msg += ": " + remote
		}
		return domain.Fail(domain.KindAuthentication, "%s", msg)
	}
	if remote != "" {
		return domain.Fail(domain.KindRemoteRejection, "WordPress error while %s: %s", action, remote)
	}
	return domain.Fail(domain.KindRemoteRejection, "WordPress returned status %d while %s", status, action)
}

// remoteMessage extracts the message of a WordPress REST error body, if any.
func remoteMessage(body []byte) string {
	var e wpError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Error)
}

func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode wordpress response: %w", err)
	}
	return nil
}
