package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
)

const (
	seoNamespace  = "seo"
	metafieldType = "single_line_text_field"
)

// Push creates or updates a blog article. An article whose handle matches the post slug is
// updated in place.
func (c *Client) Push(ctx context.Context, cfg domain.PlatformConfig, post domain.NormalizedPost) (domain.Published, error) {
	s, err := c.openStore(ctx, cfg)
	if err != nil {
		return domain.Published{}, err
	}

	blog, err := c.resolveBlog(ctx, s, strings.TrimSpace(cfg.BlogID))
	if err != nil {
		return domain.Published{}, err
	}

	payload, err := c.buildArticle(ctx, s, cfg, post)
	if err != nil {
		return domain.Published{}, err
	}

	method := http.MethodPost
	endpoint := s.api(fmt.Sprintf("/blogs/%d/articles.json", blog.ID))
	if payload.Handle != "" {
		existing, found, err := c.findArticle(ctx, s, blog.ID, payload.Handle)
		if err != nil {
			return domain.Published{}, err
		}
		if found {
			method = http.MethodPut
			endpoint = s.api(fmt.Sprintf("/blogs/%d/articles/%d.json", blog.ID, existing.ID))
			c.log.DebugObj("shopify article exists, updating", "shopify_upsert", map[string]any{
				"store":  s.base,
				"handle": payload.Handle,
				"id":     existing.ID,
			})
		}
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  method,
		URL:     endpoint,
		Headers: s.headers(),
		Body:    articleRequest{Article: payload},
		Timeout: c.uploadTimeout,
	})
	if err != nil {
		return domain.Published{}, transportFailure(s, "saving the article", err)
	}
	if !httpclient.IsSuccess(resp) {
		return domain.Published{}, responseFailure(resp, "saving the article")
	}

	var saved articleEnvelope
	if err := json.Unmarshal(resp.Body(), &saved); err != nil || saved.Article.ID <= 0 {
		return domain.Published{}, domain.FailWith(domain.KindRemoteRejection, err,
			"Shopify accepted the article but returned an unreadable response")
	}

	handle := firstNonEmpty(saved.Article.Handle, payload.Handle)
	return domain.Published{
		RemoteID:  strconv.FormatInt(saved.Article.ID, 10),
		PublicURL: fmt.Sprintf("https://%s/blogs/%s/%s", s.domain, blog.Handle, handle),
		EditURL:   fmt.Sprintf("%s/admin/articles/%d", s.base, saved.Article.ID),
	}, nil
}

// resolveBlog returns the configured blog, or the store's first blog when none is configured.
func (c *Client) resolveBlog(ctx context.Context, s store, blogID string) (Blog, error) {
	if blogID != "" {
		id, err := strconv.ParseInt(blogID, 10, 64)
		if err != nil || id <= 0 {
			return Blog{}, domain.Fail(domain.KindValidation, "Shopify blog id %q is not a number", blogID)
		}
		resp, err := c.get(ctx, s, fmt.Sprintf("/blogs/%d.json", id), nil)
		if err != nil {
			return Blog{}, transportFailure(s, "loading the blog", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return Blog{}, domain.Fail(domain.KindValidation,
				"Shopify blog %d does not exist; pick another blog for this connection", id)
		}
		if !httpclient.IsSuccess(resp) {
			return Blog{}, responseFailure(resp, "loading the blog")
		}
		var out blogEnvelope
		if err := json.Unmarshal(resp.Body(), &out); err != nil || out.Blog.ID <= 0 {
			return Blog{}, domain.FailWith(domain.KindRemoteRejection, err, "Shopify returned an unreadable blog")
		}
		return out.Blog, nil
	}

	blogs, err := c.listBlogs(ctx, s)
	if err != nil {
		return Blog{}, err
	}
	if len(blogs) == 0 {
		return Blog{}, domain.Fail(domain.KindValidation,
			"the store has no blog; create a blog in Shopify admin (Online Store > Blog posts) first")
	}
	return blogs[0], nil
}

func (c *Client) buildArticle(ctx context.Context, s store, cfg domain.PlatformConfig, post domain.NormalizedPost) (articlePayload, error) {
	body, err := c.render(post.Body)
	if err != nil {
		return articlePayload{}, domain.FailWith(domain.KindValidation, err, "could not convert the article body to HTML")
	}
	payload := articlePayload{
		Title:      post.Title,
		BodyHTML:   body,
		Tags:       joinTags(post.Tags),
		Published:  domain.ResolveStatus(post, cfg) == domain.StatusPublished,
		Handle:     strings.TrimSpace(post.Slug),
		Metafields: seoMetafields(post.SEO),
	}
	if excerpt := strings.TrimSpace(post.Excerpt); excerpt != "" {
		summary, err := c.render(excerpt)
		if err != nil {
			return articlePayload{}, domain.FailWith(domain.KindValidation, err, "could not convert the excerpt to HTML")
		}
		payload.SummaryHTML = summary
	}

	// Shopify fetches the image itself, so only a public address is handed over.
	if img := strings.TrimSpace(post.FeaturedImageURL); img != "" {
		if err := c.guard.Check(ctx, img); err != nil {
			c.log.WarnObj("shopify featured image skipped", "shopify_image_error", map[string]any{
				"store": s.base,
				"url":   img,
				"error": err.Error(),
			})
		} else {
			payload.Image = &imagePayload{Src: img, Alt: post.Title}
		}
	}
	return payload, nil
}

// findArticle looks up an article by handle. A failed lookup aborts the push.
func (c *Client) findArticle(ctx context.Context, s store, blogID int64, handle string) (article, bool, error) {
	resp, err := c.get(ctx, s, fmt.Sprintf("/blogs/%d/articles.json", blogID), map[string]string{
		"handle": handle,
		"fields": "id,handle,title",
	})
	if err != nil {
		return article{}, false, transportFailure(s, "checking for an existing article", err)
	}
	if !httpclient.IsSuccess(resp) {
		return article{}, false, responseFailure(resp, "checking for an existing article")
	}
	var out articlesEnvelope
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return article{}, false, domain.FailWith(domain.KindRemoteRejection, err,
			"Shopify returned an unreadable article list while checking for an existing article")
	}
	// Shopify applies the handle filter after its own normalization; trust it.
	for _, a := range out.Articles {
		if a.ID > 0 {
			return a, true, nil
		}
	}
	return article{}, false, nil
}

// joinTags trims, drops blanks and case-insensitive duplicates, and joins with commas.
func joinTags(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ReplaceAll(t, ",", " "))
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, ", ")
}

func seoMetafields(seo domain.SEO) []metafield {
	var out []metafield
	if v := strings.TrimSpace(seo.MetaTitle); v != "" {
		out = append(out, metafield{Namespace: seoNamespace, Key: "title", Value: v, Type: metafieldType})
	}
	if v := strings.TrimSpace(seo.MetaDescription); v != "" {
		out = append(out, metafield{Namespace: seoNamespace, Key: "description", Value: v, Type: metafieldType})
	}
	return out
}
