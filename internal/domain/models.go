package domain

import "strings"

// Domain contains the publish-side models shared by every platform adapter.

// Publish statuses accepted on a NormalizedPost.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// SEO carries optional search metadata for a post.
type SEO struct {
	MetaTitle       string `json:"meta_title,omitempty" yaml:"meta_title"`
	MetaDescription string `json:"meta_description,omitempty" yaml:"meta_description"`
	FocusKeyword    string `json:"focus_keyword,omitempty" yaml:"focus_keyword"`
}

// Empty reports whether no SEO field is set.
func (s SEO) Empty() bool {
	return strings.TrimSpace(s.MetaTitle) == "" &&
		strings.TrimSpace(s.MetaDescription) == "" &&
		strings.TrimSpace(s.FocusKeyword) == ""
}

// NormalizedPost is the platform-neutral article handed to an adapter.
type NormalizedPost struct {
	Title            string   `json:"title" yaml:"title"`
	Body             string   `json:"body" yaml:"-"`
	Excerpt          string   `json:"excerpt,omitempty" yaml:"excerpt"`
	Slug             string   `json:"slug,omitempty" yaml:"slug"`
	Status           string   `json:"status,omitempty" yaml:"status"`
	Tags             []string `json:"tags,omitempty" yaml:"tags"`
	FeaturedImageURL string   `json:"featured_image_url,omitempty" yaml:"featured_image"`
	SEO              SEO      `json:"seo" yaml:"seo"`
	Category         string   `json:"category,omitempty" yaml:"category"`
}

// PlatformConfig is the caller-owned connection material for one push or test call.
type PlatformConfig struct {
	BaseURL           string
	Username          string
	AppPassword       string
	APIKey            string
	AccessToken       string
	DefaultStatus     string
	DefaultCategoryID string
	BlogID            string
}

// ResolveStatus picks the post status, falling back to the configured default and then draft.
func ResolveStatus(post NormalizedPost, cfg PlatformConfig) string {
	for _, s := range []string{post.Status, cfg.DefaultStatus} {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case StatusPublished, "publish":
			return StatusPublished
		case StatusDraft:
			return StatusDraft
		}
	}
	return StatusDraft
}

// Published identifies the remote article after a successful create or update.
type Published struct {
	RemoteID  string `json:"remote_id"`
	PublicURL string `json:"public_url"`
	EditURL   string `json:"edit_url"`
}

// Connected describes the account behind a successful connection test.
type Connected struct {
	PlatformName    string `json:"platform_name"`
	AccountIdentity string `json:"account_identity"`
}
