package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
)

const maxTags = 10

// resolveTags maps tag names to WordPress term ids, creating missing tags.
// A tag that cannot be resolved is logged and left out; it never fails the push.
func (c *Client) resolveTags(ctx context.Context, s site, names []string) []int64 {
	names = cleanTags(names)
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := c.resolveTag(ctx, s, name)
		if err != nil {
			c.log.WarnObj("wordpress tag skipped", "wordpress_tag_error", map[string]any{
				"site":  s.base,
				"tag":   name,
				"error": err.Error(),
			})
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// cleanTags trims, drops blanks and case-insensitive duplicates, and keeps the first maxTags.
func cleanTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func (c *Client) resolveTag(ctx context.Context, s site, name string) (int64, error) {
	if id, ok := c.findTag(ctx, s, name); ok {
		return id, nil
	}
	return c.createTag(ctx, s, name)
}

// findTag searches for a tag with exactly this name. Lookup errors count as not found.
func (c *Client) findTag(ctx context.Context, s site, name string) (int64, bool) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:    http.MethodGet,
		URL:       s.api("/wp/v2/tags"),
		Query:     map[string]string{"search": name, "per_page": "100"},
		BasicAuth: s.auth,
		Timeout:   c.lookupTimeout,
	})
	if err != nil || !httpclient.IsSuccess(resp) {
		return 0, false
	}
	var tags []wpTag
	if err := json.Unmarshal(resp.Body(), &tags); err != nil {
		return 0, false
	}
	for _, t := range tags {
		if t.ID > 0 && strings.EqualFold(html.UnescapeString(t.Name), name) {
			return t.ID, true
		}
	}
	return 0, false
}

func (c *Client) createTag(ctx context.Context, s site, name string) (int64, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		URL:       s.api("/wp/v2/tags"),
		Body:      map[string]string{"name": name},
		BasicAuth: s.auth,
		Timeout:   c.lookupTimeout,
	})
	if err != nil {
		return 0, fmt.Errorf("create tag: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		// WordPress answers a create race with term_exists and the existing id.
		var e wpError
		if json.Unmarshal(resp.Body(), &e) == nil && e.Code == "term_exists" {
			if id, ok := e.Data.TermID.Int64(); ok {
				return id, nil
			}
		}
		return 0, responseFailure(resp, fmt.Sprintf("creating tag %q", name))
	}
	var tag wpTag
	if err := decodeJSON(resp.Body(), &tag); err != nil {
		return 0, err
	}
	if tag.ID <= 0 {
		return 0, fmt.Errorf("create tag %q: response has no id", name)
	}
	return tag.ID, nil
}
