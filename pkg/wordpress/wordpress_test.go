package wordpress

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/urlsafety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeWordPress) config() domain.PlatformConfig {
	return domain.PlatformConfig{
		BaseURL:     f.URL() + "/",
		Username:    testUser,
		AppPassword: testPassword,
	}
}

func helloWorld() domain.NormalizedPost {
	return domain.NormalizedPost{
		Title:  "Hello World",
		Body:   "# Intro\n\nFirst post.",
		Slug:   "hello-world",
		Status: domain.StatusPublished,
	}
}

func TestPushCreatesThenUpdatesBySlug(t *testing.T) {
	wp := newFakeWordPress(t)
	c := wp.client()
	ctx := context.Background()

	first, err := c.Push(ctx, wp.config(), helloWorld())
	require.NoError(t, err)
	assert.NotEmpty(t, first.RemoteID)
	assert.Equal(t, wp.URL()+"/hello-world/", first.PublicURL)
	assert.Equal(t, wp.URL()+"/wp-admin/post.php?post="+first.RemoteID+"&action=edit", first.EditURL)

	edited := helloWorld()
	edited.Title = "Hello World, Revised"
	second, err := c.Push(ctx, wp.config(), edited)
	require.NoError(t, err)
	assert.Equal(t, first.RemoteID, second.RemoteID)

	posts, creates, updates := wp.snapshot()
	require.Len(t, posts, 1)
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, updates)
	assert.Equal(t, "Hello World, Revised", posts[0].Title)
	assert.Equal(t, "publish", posts[0].Status)
	assert.Contains(t, posts[0].Content, `<h1 id="intro">Intro</h1>`)
}

func TestPushDraftAndSEOMeta(t *testing.T) {
	wp := newFakeWordPress(t)
	cfg := wp.config()
	cfg.DefaultStatus = domain.StatusDraft
	cfg.DefaultCategoryID = "12"

	post := helloWorld()
	post.Status = ""
	post.SEO = domain.SEO{MetaTitle: "Hello | Blog", MetaDescription: "A first post", FocusKeyword: "hello"}

	_, err := wp.client().Push(context.Background(), cfg, post)
	require.NoError(t, err)

	posts, _, _ := wp.snapshot()
	require.Len(t, posts, 1)
	assert.Equal(t, "draft", posts[0].Status)
	assert.Equal(t, []int64{12}, posts[0].Categories)
	assert.Equal(t, map[string]string{
		yoastTitleKey:   "Hello | Blog",
		yoastDescKey:    "A first post",
		yoastFocusKWKey: "hello",
	}, posts[0].Meta)
}

func TestPushSkipsTagThatFails(t *testing.T) {
	wp := newFakeWordPress(t)
	wp.failTag = "broken"

	post := helloWorld()
	post.Tags = []string{"Go", "golang", "broken", " ", "GO"}

	_, err := wp.client().Push(context.Background(), wp.config(), post)
	require.NoError(t, err)

	posts, _, _ := wp.snapshot()
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Tags, 2)
	// "golang" already existed; the search for "Go" also returns it but only an exact name matches.
	assert.NotEqual(t, int64(7), posts[0].Tags[0])
	assert.Equal(t, int64(7), posts[0].Tags[1])
}

func TestPushUploadsFeaturedImageAndPatchesAltText(t *testing.T) {
	wp := newFakeWordPress(t)
	post := helloWorld()
	post.FeaturedImageURL = wp.URL() + "/images/cover.png"

	_, err := wp.client().Push(context.Background(), wp.config(), post)
	require.NoError(t, err)

	posts, _, _ := wp.snapshot()
	require.Len(t, posts, 1)
	assert.Equal(t, int64(501), posts[0].FeaturedMedia)

	wp.mu.Lock()
	uploads := append([]uploadedMedia(nil), wp.uploads...)
	wp.mu.Unlock()
	require.Len(t, uploads, 1)
	assert.Equal(t, "image/png", uploads[0].ContentType)
	assert.Equal(t, `attachment; filename="hello-world.png"`, uploads[0].Disposition)
	assert.Positive(t, uploads[0].Size)

	select {
	case alt := <-wp.altTexts:
		assert.Equal(t, "Hello World", alt)
	case <-time.After(3 * time.Second):
		t.Fatal("alt text patch never arrived")
	}
}

func TestPushMissingImageStillPublishes(t *testing.T) {
	wp := newFakeWordPress(t)
	post := helloWorld()
	post.FeaturedImageURL = wp.URL() + "/images/missing.png"

	got, err := wp.client().Push(context.Background(), wp.config(), post)
	require.NoError(t, err)
	assert.NotEmpty(t, got.RemoteID)

	posts, _, _ := wp.snapshot()
	require.Len(t, posts, 1)
	assert.Zero(t, posts[0].FeaturedMedia)
}

func TestPushNonASCIISlugUpdatesInPlace(t *testing.T) {
	wp := newFakeWordPress(t)
	c := wp.client()
	post := helloWorld()
	post.Slug = "Café-guide"

	first, err := c.Push(context.Background(), wp.config(), post)
	require.NoError(t, err)
	second, err := c.Push(context.Background(), wp.config(), post)
	require.NoError(t, err)
	assert.Equal(t, first.RemoteID, second.RemoteID)

	posts, creates, updates := wp.snapshot()
	require.Len(t, posts, 1)
	assert.Equal(t, "caf%c3%a9-guide", posts[0].Slug)
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, updates)
}

func TestPushSucceedsWhenAltTextPatchFails(t *testing.T) {
	wp := newFakeWordPress(t)
	wp.mu.Lock()
	wp.failAlt = true
	wp.mu.Unlock()
	post := helloWorld()
	post.FeaturedImageURL = wp.URL() + "/images/cover.png"

	got, err := wp.client().Push(context.Background(), wp.config(), post)
	require.NoError(t, err)
	assert.NotEmpty(t, got.RemoteID)

	select {
	case <-wp.altTexts:
	case <-time.After(3 * time.Second):
		t.Fatal("alt text patch never arrived")
	}
	posts, _, _ := wp.snapshot()
	require.Len(t, posts, 1)
	assert.Equal(t, int64(501), posts[0].FeaturedMedia)
}

func TestPushHungCallsAreCutOff(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		opts   Options
	}{
		{"slug lookup", http.MethodGet, "/wp-json/wp/v2/posts", Options{LookupTimeout: 100 * time.Millisecond}},
		{"post save", http.MethodPost, "/wp-json/wp/v2/posts", Options{UploadTimeout: 100 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp := newFakeWordPress(t)
			wp.stall(tt.method, tt.path, 2*time.Second)

			opts := tt.opts
			opts.HTTP = httpclient.NewRestyClient(5 * time.Second)
			opts.Guard = urlsafety.AllowAll
			start := time.Now()
			_, err := New(opts).Push(context.Background(), wp.config(), helloWorld())
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindTransport), err.Error())
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestPushRejectedCredentials(t *testing.T) {
	wp := newFakeWordPress(t)
	wp.rejectAuth = true

	_, err := wp.client().Push(context.Background(), wp.config(), helloWorld())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAuthentication))
	assert.Contains(t, err.Error(), "application password")
	assert.Contains(t, err.Error(), "You are not currently logged in.")
}

func TestPushUnreachableSite(t *testing.T) {
	wp := newFakeWordPress(t)
	cfg := wp.config()
	wp.srv.Close()

	_, err := wp.client().Push(context.Background(), cfg, helloWorld())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindTransport))
	assert.Contains(t, err.Error(), "could not reach WordPress")
}

func TestPushMissingCredentials(t *testing.T) {
	wp := newFakeWordPress(t)
	cfg := wp.config()
	cfg.AppPassword = ""

	_, err := wp.client().Push(context.Background(), cfg, helloWorld())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Zero(t, wp.hits)
}

type privateResolver struct{}

func (privateResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return []net.IPAddr{{IP: net.ParseIP("10.1.2.3")}}, nil
}

func TestPushRefusesPrivateSiteBeforeSending(t *testing.T) {
	var calls int
	c := New(Options{
		HTTP:  countingClient{n: &calls},
		Guard: urlsafety.New(privateResolver{}),
	})

	for _, base := range []string{"http://127.0.0.1:8080", "http://intranet.example.com", "http://localhost"} {
		_, err := c.Push(context.Background(), domain.PlatformConfig{
			BaseURL: base, Username: testUser, AppPassword: testPassword,
		}, helloWorld())
		require.Error(t, err, base)
		assert.True(t, domain.IsKind(err, domain.KindValidation), base)
	}
	assert.Zero(t, calls)
}

type countingClient struct{ n *int }

func (c countingClient) Do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	*c.n++
	return nil, context.Canceled
}

func TestTestConnection(t *testing.T) {
	wp := newFakeWordPress(t)

	got, err := wp.client().TestConnection(context.Background(), wp.config())
	require.NoError(t, err)
	assert.Equal(t, domain.Connected{PlatformName: "Test Blog", AccountIdentity: "Ed Itor"}, got)
}

func TestTestConnectionFallsBackToBaseURL(t *testing.T) {
	wp := newFakeWordPress(t)
	wp.siteDown = true

	got, err := wp.client().TestConnection(context.Background(), wp.config())
	require.NoError(t, err)
	assert.Equal(t, wp.URL(), got.PlatformName)
}

func TestTestConnectionFailureKinds(t *testing.T) {
	wp := newFakeWordPress(t)
	wp.rejectAuth = true
	_, authErr := wp.client().TestConnection(context.Background(), wp.config())
	require.Error(t, authErr)
	assert.True(t, domain.IsKind(authErr, domain.KindAuthentication))

	down := newFakeWordPress(t)
	cfg := down.config()
	down.srv.Close()
	_, netErr := down.client().TestConnection(context.Background(), cfg)
	require.Error(t, netErr)
	assert.True(t, domain.IsKind(netErr, domain.KindTransport))

	assert.NotEqual(t, authErr.Error(), netErr.Error())
}

func TestInferMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	tests := []struct {
		name        string
		contentType string
		url         string
		body        []byte
		want        string
	}{
		{"header wins", "image/webp; charset=binary", "https://cdn.example.com/a.png", png, "image/webp"},
		{"octet stream uses extension", "application/octet-stream", "https://cdn.example.com/a.GIF?x=1", nil, "image/gif"},
		{"sniffed", "", "https://cdn.example.com/image", png, "image/png"},
		{"fallback", "", "https://cdn.example.com/image", []byte("hello"), "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferMIME(tt.contentType, tt.url, tt.body))
		})
	}
}

func TestImageFilename(t *testing.T) {
	png := downloadedImage{mime: "image/png"}
	assert.Equal(t, "cafe-au-lait.png", imageFilename("Café au Lait!", png))
	assert.Equal(t, "featured-image.jpg", imageFilename("???", downloadedImage{mime: "image/tiff"}))

	long := imageFilename(strings.Repeat("word ", 40), png)
	assert.LessOrEqual(t, len(strings.TrimSuffix(long, ".png")), 80)
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(long, ".png"), "-"))

	cyrillic := imageFilename(strings.Repeat("абвгдежзи ", 8), png)
	assert.Equal(t, "featured-image.png", cyrillic)

	mixed := imageFilename("Go на практике 2024", png)
	assert.Equal(t, "go-2024.png", mixed)
	assert.True(t, utf8.ValidString(mixed))
}

func TestCleanTags(t *testing.T) {
	in := []string{" SEO ", "seo", "", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	got := cleanTags(in)
	assert.Len(t, got, maxTags)
	assert.Equal(t, "SEO", got[0])
	assert.Equal(t, "i", got[len(got)-1])
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://blog.example.com", normalizeBaseURL(" blog.example.com/ "))
	assert.Equal(t, "http://blog.example.com", normalizeBaseURL("http://blog.example.com//"))
	assert.Empty(t, normalizeBaseURL("  "))
}
