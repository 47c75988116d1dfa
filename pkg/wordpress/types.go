package wordpress

import (
	"bytes"
	"strconv"
)

// Response shapes are decoded leniently: unknown fields are ignored and only the
// fields this package reads are declared.

type wpSite struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Home string `json:"home"`
}

type wpUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Username string `json:"username"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    struct {
		Status int    `json:"status"`
		TermID flexID `json:"term_id"`
	} `json:"data"`
}

type wpMedia struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

type wpTag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wpPost struct {
	ID     int64  `json:"id"`
	Slug   string `json:"slug"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

type postPayload struct {
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Excerpt       string            `json:"excerpt,omitempty"`
	Slug          string            `json:"slug,omitempty"`
	Status        string            `json:"status"`
	Tags          []int64           `json:"tags,omitempty"`
	FeaturedMedia int64             `json:"featured_media,omitempty"`
	Categories    []int64           `json:"categories,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

type pluginStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	SiteName string `json:"site_name"`
}

type pluginImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
	Alt      string `json:"alt,omitempty"`
}

type pluginPayload struct {
	Title           string       `json:"title"`
	Content         string       `json:"content"`
	ContentFormat   string       `json:"content_format"`
	Excerpt         string       `json:"excerpt,omitempty"`
	Slug            string       `json:"slug,omitempty"`
	Status          string       `json:"status"`
	Tags            []string     `json:"tags,omitempty"`
	Category        string       `json:"category,omitempty"`
	MetaTitle       string       `json:"meta_title,omitempty"`
	MetaDescription string       `json:"meta_description,omitempty"`
	FocusKeyword    string       `json:"focus_keyword,omitempty"`
	FeaturedImage   *pluginImage `json:"featured_image,omitempty"`
}

type pluginPushResponse struct {
	Success *bool  `json:"success"`
	PostID  flexID `json:"post_id"`
	PostURL string `json:"post_url"`
	EditURL string `json:"edit_url"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// flexID accepts an id encoded either as a JSON number or a string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if s, err := strconv.Unquote(string(b)); err == nil {
		*f = flexID(s)
		return nil
	}
	*f = flexID(b)
	return nil
}

func (f flexID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	return n, err == nil && n > 0
}
