// Package postfile reads articles written as markdown with a YAML front matter block.
package postfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/transcode"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrNoTitle is returned when neither the front matter nor the body provides a title.
var ErrNoTitle = errors.New("post has no title")

// Load reads and parses the post file at path.
func Load(path string) (domain.NormalizedPost, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.NormalizedPost{}, fmt.Errorf("read post file: %w", err)
	}
	post, err := Parse(raw)
	if err != nil {
		return domain.NormalizedPost{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return post, nil
}

// Parse splits front matter from body and fills the missing title and slug.
// A document without front matter is all body.
func Parse(raw []byte) (domain.NormalizedPost, error) {
	front, body, err := split(raw)
	if err != nil {
		return domain.NormalizedPost{}, err
	}

	var post domain.NormalizedPost
	if len(front) > 0 {
		if err := yaml.Unmarshal(front, &post); err != nil {
			return domain.NormalizedPost{}, fmt.Errorf("decode front matter: %w", err)
		}
	}
	post.Body = strings.TrimSpace(body)
	post.Title = strings.TrimSpace(post.Title)
	post.Slug = strings.TrimSpace(post.Slug)
	post.Status = strings.ToLower(strings.TrimSpace(post.Status))

	if post.Title == "" {
		post.Title = firstHeading(post.Body)
	}
	if post.Title == "" {
		return domain.NormalizedPost{}, ErrNoTitle
	}
	if post.Slug == "" {
		post.Slug = transcode.Slugify(post.Title)
	}
	return post, nil
}

// split returns the front matter bytes and the remaining body.
func split(raw []byte) ([]byte, string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return nil, text, nil
	}

	rest := text[len(delimiter)+1:]
	if strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter {
		return nil, strings.TrimPrefix(rest, delimiter), nil
	}
	end := strings.Index(rest, "\n"+delimiter+"\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n"+delimiter) {
			return []byte(strings.TrimSuffix(rest, "\n"+delimiter)), "", nil
		}
		return nil, "", errors.New("front matter is not closed")
	}
	return []byte(rest[:end]), rest[end+len(delimiter)+2:], nil
}

// firstHeading returns the text of the first level-one ATX heading.
func firstHeading(body string) string {
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
