// Package shopify publishes normalized posts as Shopify blog articles through the Admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/transcode"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/urlsafety"
)

const (
	DefaultAPIVersion = "2024-10"

	defaultLookupTimeout = 10 * time.Second
	defaultUploadTimeout = 60 * time.Second

	tokenHeader = "X-Shopify-Access-Token"
)

// Options configures a Client. Zero values fall back to production defaults.
type Options struct {
	HTTP          httpclient.Client
	Guard         urlsafety.Guard
	Logger        logger.Logger
	Render        func(markdown string) (string, error)
	APIVersion    string
	LookupTimeout time.Duration
	UploadTimeout time.Duration
}

// Client talks to Shopify stores. It is safe for concurrent use.
type Client struct {
	http          httpclient.Client
	guard         urlsafety.Guard
	log           logger.Logger
	render        func(string) (string, error)
	version       string
	lookupTimeout time.Duration
	uploadTimeout time.Duration
}

// New builds a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		http:          opts.HTTP,
		guard:         opts.Guard,
		log:           logger.Ensure(opts.Logger),
		render:        opts.Render,
		version:       strings.TrimSpace(opts.APIVersion),
		lookupTimeout: opts.LookupTimeout,
		uploadTimeout: opts.UploadTimeout,
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
	if c.version == "" {
		c.version = DefaultAPIVersion
	}
	if c.lookupTimeout <= 0 {
		c.lookupTimeout = defaultLookupTimeout
	}
	if c.uploadTimeout <= 0 {
		c.uploadTimeout = defaultUploadTimeout
	}
	return c
}

// store is a vetted store base URL plus its access token.
type store struct {
	base    string
	domain  string
	token   string
	version string
}

func (s store) api(path string) string {
	return s.base + "/admin/api/" + s.version + path
}

func (s store) headers() map[string]string {
	return map[string]string{tokenHeader: s.token}
}

// openStore normalizes and vets the store URL and requires an access token.
func (c *Client) openStore(ctx context.Context, cfg domain.PlatformConfig) (store, error) {
	base := normalizeBaseURL(cfg.BaseURL)
	if base == "" {
		return store{}, domain.Fail(domain.KindValidation, "Shopify store URL is empty")
	}
	u, err := url.Parse(base)
	if err != nil || u.Hostname() == "" {
		return store{}, domain.FailWith(domain.KindValidation, err, "Shopify store URL %q is not a valid URL", cfg.BaseURL)
	}
	if err := c.guard.Check(ctx, base); err != nil {
		return store{}, domain.FailWith(domain.KindValidation, err,
			"store URL %s is not allowed: it must be a public http(s) address", base)
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return store{}, domain.Fail(domain.KindValidation,
			"Shopify is not connected: add an Admin API access token")
	}
	return store{base: base, domain: u.Host, token: token, version: c.version}, nil
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

func (c *Client) get(ctx context.Context, s store, path string, query map[string]string) (httpclient.Response, error) {
	return c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     s.api(path),
		Headers: s.headers(),
		Query:   query,
		Timeout: c.lookupTimeout,
	})
}

func transportFailure(s store, action string, err error) *domain.Failure {
	return domain.FailWith(domain.KindTransport, err,
		"could not reach Shopify at %s while %s; check the store URL", s.base, action)
}

// responseFailure classifies a non-2xx Admin API response.
func responseFailure(resp httpclient.Response, action string) *domain.Failure {
	status := resp.StatusCode()
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return domain.Fail(domain.KindAuthentication,
			"Shopify rejected the access token while %s (status %d); check your access token and its scopes", action, status)
	}
	if msg := remoteErrors(resp.Body()); msg != "" {
		return domain.Fail(domain.KindRemoteRejection, "Shopify error while %s: %s", action, msg)
	}
	return domain.Fail(domain.KindRemoteRejection, "Shopify returned status %d while %s", status, action)
}

// remoteErrors renders the "errors" member of an Admin API error body. Shopify sends it as
// a string, a list of strings, or a map of field name to messages.
func remoteErrors(body []byte) string {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(envelope.Errors, &text) == nil {
		return strings.TrimSpace(text)
	}
	var list []string
	if json.Unmarshal(envelope.Errors, &list) == nil {
		return strings.Join(list, "; ")
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(envelope.Errors, &fields) == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			var msgs []string
			if json.Unmarshal(fields[k], &msgs) != nil {
				var one string
				if json.Unmarshal(fields[k], &one) != nil {
					continue
				}
				msgs = []string{one}
			}
			parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(msgs, ", ")))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
