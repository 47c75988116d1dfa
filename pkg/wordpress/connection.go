package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"golang.org/x/sync/errgroup"
)

// TestConnection checks an Application Password against the site. The site index and the
// current user are fetched concurrently; the user call decides the outcome, the index only
// supplies the display name.
func (c *Client) TestConnection(ctx context.Context, cfg domain.PlatformConfig) (domain.Connected, error) {
	s, err := c.openSite(ctx, cfg.BaseURL)
	if err != nil {
		return domain.Connected{}, err
	}
	if cfg.Username == "" || cfg.AppPassword == "" {
		return domain.Connected{}, domain.Fail(domain.KindValidation,
			"enter the WordPress username and application password")
	}
	s.auth = &httpclient.BasicAuth{Username: cfg.Username, Password: cfg.AppPassword}

	var (
		g                errgroup.Group
		siteResp, meResp httpclient.Response
		siteErr, meErr   error
	)
	g.Go(func() error {
		siteResp, siteErr = c.http.Do(ctx, httpclient.Request{
			Method:  http.MethodGet,
			URL:     s.api(""),
			Timeout: c.lookupTimeout,
		})
		return nil
	})
	g.Go(func() error {
		meResp, meErr = c.http.Do(ctx, httpclient.Request{
			Method:    http.MethodGet,
			URL:       s.api("/wp/v2/users/me"),
			Query:     map[string]string{"context": "edit"},
			BasicAuth: s.auth,
			Timeout:   c.lookupTimeout,
		})
		return nil
	})
	_ = g.Wait()

	if meErr != nil {
		return domain.Connected{}, transportFailure(s, "testing the connection", meErr)
	}
	if !httpclient.IsSuccess(meResp) {
		return domain.Connected{}, responseFailure(meResp, "testing the connection")
	}

	var me wpUser
	if err := json.Unmarshal(meResp.Body(), &me); err != nil {
		return domain.Connected{}, domain.FailWith(domain.KindRemoteRejection, err,
			"%s did not return a WordPress user; check that the URL points at a WordPress site", s.base)
	}

	return domain.Connected{
		PlatformName:    c.siteName(s, siteResp, siteErr),
		AccountIdentity: firstNonEmpty(me.Name, me.Username, me.Slug, cfg.Username),
	}, nil
}

// siteName reads the site title from the REST index, falling back to the base URL.
func (c *Client) siteName(s site, resp httpclient.Response, err error) string {
	if err != nil || !httpclient.IsSuccess(resp) {
		c.log.DebugObj("wordpress site index unavailable", "wordpress_site_index", map[string]any{
			"site": s.base,
		})
		return s.base
	}
	var info wpSite
	if err := json.Unmarshal(resp.Body(), &info); err != nil {
		return s.base
	}
	return firstNonEmpty(info.Name, s.base)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
