package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
)

// pluginEndpoint is the companion plugin namespace that answered the status check.
type pluginEndpoint struct {
	site      site
	namespace string
	apiKey    string
	status    pluginStatus
}

func (p pluginEndpoint) url(route string) string {
	return p.site.api("/" + p.namespace + route)
}

func (p pluginEndpoint) headers() map[string]string {
	return map[string]string{pluginKeyHeader: p.apiKey}
}

// TestPluginConnection verifies the companion plugin is installed and accepts the API key.
func (c *Client) TestPluginConnection(ctx context.Context, cfg domain.PlatformConfig) (domain.Connected, error) {
	ep, err := c.openPlugin(ctx, cfg)
	if err != nil {
		return domain.Connected{}, err
	}
	identity := "plugin " + ep.namespace
	if ep.status.Version != "" {
		identity += " v" + ep.status.Version
	}
	return domain.Connected{
		PlatformName:    firstNonEmpty(ep.status.SiteName, ep.site.base),
		AccountIdentity: identity,
	}, nil
}

// PushPlugin hands the post to the companion plugin, which renders the markdown and stores
// the embedded featured image itself. Idempotency by slug is the plugin's job.
func (c *Client) PushPlugin(ctx context.Context, cfg domain.PlatformConfig, post domain.NormalizedPost) (domain.Published, error) {
	ep, err := c.openPlugin(ctx, cfg)
	if err != nil {
		return domain.Published{}, err
	}

	payload := pluginPayload{
		Title:           post.Title,
		Content:         post.Body,
		ContentFormat:   "markdown",
		Excerpt:         post.Excerpt,
		Slug:            strings.TrimSpace(post.Slug),
		Status:          wordpressStatus(domain.ResolveStatus(post, cfg)),
		Tags:            cleanTags(post.Tags),
		Category:        firstNonEmpty(post.Category, cfg.DefaultCategoryID),
		MetaTitle:       post.SEO.MetaTitle,
		MetaDescription: post.SEO.MetaDescription,
		FocusKeyword:    post.SEO.FocusKeyword,
	}

	if imgURL := strings.TrimSpace(post.FeaturedImageURL); imgURL != "" {
		img, err := c.downloadImage(ctx, imgURL)
		if err != nil {
			c.log.WarnObj("wordpress plugin featured image skipped", "wordpress_image_error", map[string]any{
				"site":  ep.site.base,
				"url":   imgURL,
				"error": err.Error(),
			})
		} else {
			payload.FeaturedImage = &pluginImage{
				Data:     base64.StdEncoding.EncodeToString(img.data),
				MimeType: img.mime,
				Filename: imageFilename(post.Title, img),
				Alt:      post.Title,
			}
		}
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     ep.url("/posts"),
		Headers: ep.headers(),
		Body:    payload,
		Timeout: c.uploadTimeout,
	})
	if err != nil {
		return domain.Published{}, transportFailure(ep.site, "sending the post to the plugin", err)
	}

	var out pluginPushResponse
	decodeErr := json.Unmarshal(resp.Body(), &out)
	if !httpclient.IsSuccess(resp) || (out.Success != nil && !*out.Success) {
		if msg := firstNonEmpty(out.Message, out.Error); decodeErr == nil && msg != "" {
			kind := domain.KindRemoteRejection
			if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
				kind = domain.KindAuthentication
			}
			return domain.Published{}, domain.Fail(kind, "%s", msg)
		}
		return domain.Published{}, responseFailure(resp, "sending the post to the plugin")
	}
	if decodeErr != nil {
		return domain.Published{}, domain.FailWith(domain.KindRemoteRejection, decodeErr,
			"the plugin accepted the post but returned an unreadable response")
	}

	published := domain.Published{
		RemoteID:  string(out.PostID),
		PublicURL: out.PostURL,
		EditURL:   out.EditURL,
	}
	if id, ok := out.PostID.Int64(); ok && published.EditURL == "" {
		published.EditURL = ep.site.editURL(id)
	}
	return published, nil
}

// openPlugin vets the site and tries the namespace candidates in order; the first one whose
// status endpoint answers 2xx is used.
func (c *Client) openPlugin(ctx context.Context, cfg domain.PlatformConfig) (pluginEndpoint, error) {
	s, err := c.openSite(ctx, cfg.BaseURL)
	if err != nil {
		return pluginEndpoint{}, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return pluginEndpoint{}, domain.Fail(domain.KindValidation,
			"WordPress plugin is not connected: paste the API key from the plugin settings page")
	}

	var (
		rejected bool
		errs     []error
	)
	for _, ns := range c.namespaces {
		ep := pluginEndpoint{site: s, namespace: strings.Trim(ns, "/"), apiKey: apiKey}
		resp, err := c.http.Do(ctx, httpclient.Request{
			Method:  http.MethodGet,
			URL:     ep.url("/status"),
			Headers: ep.headers(),
			Timeout: c.lookupTimeout,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if httpclient.IsSuccess(resp) {
			_ = json.Unmarshal(resp.Body(), &ep.status)
			return ep, nil
		}
		if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
			rejected = true
		}
	}

	switch {
	case rejected:
		return pluginEndpoint{}, domain.Fail(domain.KindAuthentication,
			"the WordPress plugin rejected the API key; copy it again from the plugin settings page")
	case len(errs) == len(c.namespaces):
		return pluginEndpoint{}, transportFailure(s, "looking for the plugin", errors.Join(errs...))
	default:
		return pluginEndpoint{}, domain.Fail(domain.KindRemoteRejection,
			"the companion plugin was not found on %s; install and activate it, then try again", s.base)
	}
}
