package shopify

import (
	"context"
	"encoding/json"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
)

// TestConnection fetches the shop record with the access token.
func (c *Client) TestConnection(ctx context.Context, cfg domain.PlatformConfig) (domain.Connected, error) {
	s, err := c.openStore(ctx, cfg)
	if err != nil {
		return domain.Connected{}, err
	}

	resp, err := c.get(ctx, s, "/shop.json", nil)
	if err != nil {
		return domain.Connected{}, transportFailure(s, "testing the connection", err)
	}
	if !httpclient.IsSuccess(resp) {
		return domain.Connected{}, responseFailure(resp, "testing the connection")
	}

	var shop shopEnvelope
	if err := json.Unmarshal(resp.Body(), &shop); err != nil {
		return domain.Connected{}, domain.FailWith(domain.KindRemoteRejection, err,
			"%s did not return a Shopify shop; check the store URL", s.base)
	}
	return domain.Connected{
		PlatformName:    firstNonEmpty(shop.Shop.Name, s.domain),
		AccountIdentity: firstNonEmpty(shop.Shop.Email, shop.Shop.Domain, shop.Shop.MyshopifyDN),
	}, nil
}

// ListBlogs returns the store's blogs. Any failure yields an empty list.
func (c *Client) ListBlogs(ctx context.Context, cfg domain.PlatformConfig) []Blog {
	s, err := c.openStore(ctx, cfg)
	if err != nil {
		c.log.WarnObj("shopify blogs unavailable", "shopify_blogs_error", map[string]any{"error": err.Error()})
		return []Blog{}
	}
	blogs, err := c.listBlogs(ctx, s)
	if err != nil {
		c.log.WarnObj("shopify blogs unavailable", "shopify_blogs_error", map[string]any{
			"store": s.base,
			"error": err.Error(),
		})
		return []Blog{}
	}
	return blogs
}

func (c *Client) listBlogs(ctx context.Context, s store) ([]Blog, error) {
	resp, err := c.get(ctx, s, "/blogs.json", nil)
	if err != nil {
		return nil, transportFailure(s, "listing blogs", err)
	}
	if !httpclient.IsSuccess(resp) {
		return nil, responseFailure(resp, "listing blogs")
	}
	var out blogsEnvelope
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, domain.FailWith(domain.KindRemoteRejection, err, "Shopify returned an unreadable blog list")
	}
	if out.Blogs == nil {
		return []Blog{}, nil
	}
	return out.Blogs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
