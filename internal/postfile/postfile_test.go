package postfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
)

func TestParseFrontMatter(t *testing.T) {
	raw := "---\r\n" +
		"title: Hello World\r\n" +
		"status: Published\r\n" +
		"excerpt: First post\r\n" +
		"tags: [go, seo]\r\n" +
		"featured_image: https://cdn.example.com/cover.png\r\n" +
		"category: \"12\"\r\n" +
		"seo:\r\n" +
		"  meta_title: Hello | Blog\r\n" +
		"  focus_keyword: hello\r\n" +
		"---\r\n" +
		"# Intro\r\n\r\nBody text.\r\n"

	got, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := domain.NormalizedPost{
		Title:            "Hello World",
		Body:             "# Intro\n\nBody text.",
		Excerpt:          "First post",
		Slug:             "hello-world",
		Status:           "published",
		Tags:             []string{"go", "seo"},
		FeaturedImageURL: "https://cdn.example.com/cover.png",
		SEO:              domain.SEO{MetaTitle: "Hello | Blog", FocusKeyword: "hello"},
		Category:         "12",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseWithoutFrontMatterUsesHeading(t *testing.T) {
	got, err := Parse([]byte("Intro line\n\n# Café Guide\n\ntext"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Title != "Café Guide" || got.Slug != "cafe-guide" {
		t.Fatalf("unexpected title/slug: %q %q", got.Title, got.Slug)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("---\ntitle: x\nno end")); err == nil {
		t.Fatalf("expected unclosed front matter error")
	}
	if _, err := Parse([]byte("---\nslug: x\n---\nno heading")); !errors.Is(err, ErrNoTitle) {
		t.Fatalf("expected ErrNoTitle, got %v", err)
	}
	if _, err := Parse([]byte("---\ntitle: [\n---\n")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.md")
	if err := os.WriteFile(path, []byte("---\ntitle: T\nslug: custom\n---\nbody"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Slug != "custom" || got.Body != "body" {
		t.Fatalf("unexpected post: %+v", got)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
