package wordpress

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

// Yoast SEO post meta keys.
const (
	yoastTitleKey    = "_yoast_wpseo_title"
	yoastDescKey     = "_yoast_wpseo_metadesc"
	yoastFocusKWKey  = "_yoast_wpseo_focuskw"
	lookupPostStatus = "publish,future,draft,pending,private"
)

// Push creates or updates a post through the core REST API using an Application Password.
// A post whose slug already exists on the site (in any status) is updated in place.
// Featured image, alt text and tags are best effort: their failures are logged and skipped.
func (c *Client) Push(ctx context.Context, cfg domain.PlatformConfig, post domain.NormalizedPost) (domain.Published, error) {
	s, err := c.openSite(ctx, cfg.BaseURL)
	if err != nil {
		return domain.Published{}, err
	}
	if cfg.Username == "" || cfg.AppPassword == "" {
		return domain.Published{}, domain.Fail(domain.KindValidation,
			"WordPress is not connected: add a username and application password")
	}
	s.auth = &httpclient.BasicAuth{Username: cfg.Username, Password: cfg.AppPassword}

	content, err := c.render(post.Body)
	if err != nil {
		return domain.Published{}, domain.FailWith(domain.KindValidation, err, "could not convert the article body to HTML")
	}

	payload := postPayload{
		Title:      post.Title,
		Content:    content,
		Excerpt:    post.Excerpt,
		Slug:       strings.TrimSpace(post.Slug),
		Status:     wordpressStatus(domain.ResolveStatus(post, cfg)),
		Categories: categoryIDs(post, cfg),
		Meta:       yoastMeta(post.SEO),
	}

	if img := strings.TrimSpace(post.FeaturedImageURL); img != "" {
		payload.FeaturedMedia = c.attachFeaturedImage(ctx, s, post, img)
	}
	payload.Tags = c.resolveTags(ctx, s, post.Tags)

	endpoint := s.api("/wp/v2/posts")
	if payload.Slug != "" {
		existing, found, err := c.findPostBySlug(ctx, s, payload.Slug)
		if err != nil {
			return domain.Published{}, err
		}
		if found {
			endpoint = s.api(fmt.Sprintf("/wp/v2/posts/%d", existing.ID))
			c.log.DebugObj("wordpress post exists, updating", "wordpress_upsert", map[string]any{
				"site": s.base,
				"slug": payload.Slug,
				"id":   existing.ID,
			})
		}
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		URL:       endpoint,
		Body:      payload,
		BasicAuth: s.auth,
		Timeout:   c.uploadTimeout,
	})
	if err != nil {
		return domain.Published{}, transportFailure(s, "saving the post", err)
	}
	if !httpclient.IsSuccess(resp) {
		return domain.Published{}, responseFailure(resp, "saving the post")
	}

	var saved wpPost
	if err := json.Unmarshal(resp.Body(), &saved); err != nil || saved.ID <= 0 {
		return domain.Published{}, domain.FailWith(domain.KindRemoteRejection, err,
			"WordPress accepted the post but returned an unreadable response")
	}

	return domain.Published{
		RemoteID:  strconv.FormatInt(saved.ID, 10),
		PublicURL: saved.Link,
		EditURL:   s.editURL(saved.ID),
	}, nil
}

// attachFeaturedImage downloads, uploads and captions the image. It returns 0 when any step fails.
func (c *Client) attachFeaturedImage(ctx context.Context, s site, post domain.NormalizedPost, imageURL string) int64 {
	img, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		c.log.WarnObj("wordpress featured image skipped", "wordpress_image_error", map[string]any{
			"site":  s.base,
			"url":   imageURL,
			"error": err.Error(),
		})
		return 0
	}

	media, err := c.uploadMedia(ctx, s, img, imageFilename(post.Title, img))
	if err != nil {
		c.log.WarnObj("wordpress media upload failed", "wordpress_image_error", map[string]any{
			"site":  s.base,
			"error": err.Error(),
		})
		return 0
	}

	if alt := strings.TrimSpace(post.Title); alt != "" {
		c.fireAndForget(ctx, "alt_text", func(taskCtx context.Context) error {
			return c.patchAltText(taskCtx, s, media.ID, alt)
		})
	}
	return media.ID
}

// findPostBySlug looks for a post with slug in every status. WordPress filters by its own
// sanitized slug and echoes it back lowercased and percent-encoded, so any returned post is the
// match. A failed lookup aborts the push, since creating blindly could duplicate the article.
func (c *Client) findPostBySlug(ctx context.Context, s site, slug string) (wpPost, bool, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    s.api("/wp/v2/posts"),
		Query: map[string]string{
			"slug":    slug,
			"status":  lookupPostStatus,
			"context": "edit",
		},
		BasicAuth: s.auth,
		Timeout:   c.lookupTimeout,
	})
	if err != nil {
		return wpPost{}, false, transportFailure(s, "checking for an existing post", err)
	}
	if !httpclient.IsSuccess(resp) {
		return wpPost{}, false, responseFailure(resp, "checking for an existing post")
	}

	var posts []wpPost
	if err := json.Unmarshal(resp.Body(), &posts); err != nil {
		return wpPost{}, false, domain.FailWith(domain.KindRemoteRejection, err,
			"WordPress returned an unreadable post list while checking for an existing post")
	}
	for _, p := range posts {
		if p.ID > 0 {
			return p, true, nil
		}
	}
	return wpPost{}, false, nil
}

func wordpressStatus(status string) string {
	if status == domain.StatusPublished {
		return "publish"
	}
	return "draft"
}

// categoryIDs uses a numeric post category, else the configured default.
func categoryIDs(post domain.NormalizedPost, cfg domain.PlatformConfig) []int64 {
	for _, raw := range []string{post.Category, cfg.DefaultCategoryID} {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			return []int64{id}
		}
	}
	return nil
}

func yoastMeta(seo domain.SEO) map[string]string {
	if seo.Empty() {
		return nil
	}
	meta := make(map[string]string, 3)
	if v := strings.TrimSpace(seo.MetaTitle); v != "" {
		meta[yoastTitleKey] = v
	}
	if v := strings.TrimSpace(seo.MetaDescription); v != "" {
		meta[yoastDescKey] = v
	}
	if v := strings.TrimSpace(seo.FocusKeyword); v != "" {
		meta[yoastFocusKWKey] = v
	}
	return meta
}
