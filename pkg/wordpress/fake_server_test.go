package wordpress

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/urlsafety"
)

const (
	testUser     = "editor"
	testPassword = "abcd efgh ijkl"
)

type storedPost struct {
	ID            int64
	Title         string
	Slug          string
	Status        string
	Content       string
	Tags          []int64
	FeaturedMedia int64
	Categories    []int64
	Meta          map[string]string
}

type uploadedMedia struct {
	ContentType string
	Disposition string
	Size        int
}

// fakeWordPress is an in-memory stand-in for the WordPress REST API.
type fakeWordPress struct {
	t      *testing.T
	srv    *httptest.Server
	mu     sync.Mutex
	nextID int64

	posts   map[int64]*storedPost
	tags    map[string]int64
	uploads []uploadedMedia
	creates int
	updates int
	hits    int

	rejectAuth  bool
	failTag     string
	failAlt     bool
	siteDown    bool
	imageType   string
	altTexts    chan string
	postPayload map[string]any
	delays      map[string]time.Duration
}

func newFakeWordPress(t *testing.T) *fakeWordPress {
	t.Helper()
	f := &fakeWordPress{
		t:         t,
		nextID:    100,
		posts:     map[int64]*storedPost{},
		tags:      map[string]int64{"golang": 7},
		imageType: "application/octet-stream",
		altTexts:  make(chan string, 4),
		delays:    map[string]time.Duration{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeWordPress) URL() string { return f.srv.URL }

func (f *fakeWordPress) client() *Client {
	return New(Options{
		HTTP:          httpclient.NewRestyClient(5 * time.Second),
		Guard:         urlsafety.AllowAll,
		LookupTimeout: 2 * time.Second,
	})
}

func (f *fakeWordPress) id() int64 {
	f.nextID++
	return f.nextID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// stall makes method+path hang for d, or until the client gives up.
func (f *fakeWordPress) stall(method, path string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[method+" "+path] = d
}

func (f *fakeWordPress) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delay := f.delays[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++

	path := r.URL.Path
	if path == "/images/cover.png" {
		w.Header().Set("Content-Type", f.imageType)
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n fake image bytes"))
		return
	}
	if path == "/wp-json" {
		if f.siteDown {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": "Test Blog", "url": f.srv.URL})
		return
	}

	user, pass, ok := r.BasicAuth()
	if f.rejectAuth || !ok || user != testUser || pass != testPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"code":    "rest_not_logged_in",
			"message": "You are not currently logged in.",
			"data":    map[string]any{"status": 401},
		})
		return
	}

	switch {
	case path == "/wp-json/wp/v2/users/me":
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": "Ed Itor", "slug": "editor"})
	case path == "/wp-json/wp/v2/tags" && r.Method == http.MethodGet:
		f.searchTags(w, r.URL.Query().Get("search"))
	case path == "/wp-json/wp/v2/tags" && r.Method == http.MethodPost:
		f.createTag(w, r)
	case path == "/wp-json/wp/v2/media" && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		f.uploads = append(f.uploads, uploadedMedia{
			ContentType: r.Header.Get("Content-Type"),
			Disposition: r.Header.Get("Content-Disposition"),
			Size:        len(body),
		})
		writeJSON(w, http.StatusCreated, map[string]any{"id": 501, "source_url": f.srv.URL + "/uploads/cover.png"})
	case strings.HasPrefix(path, "/wp-json/wp/v2/media/") && r.Method == http.MethodPatch:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.altTexts <- body["alt_text"]
		if f.failAlt {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"code": "rest_cannot_update", "message": "Sorry, you are not allowed to edit this post."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 501})
	case path == "/wp-json/wp/v2/posts" && r.Method == http.MethodGet:
		f.findPosts(w, r)
	case path == "/wp-json/wp/v2/posts" && r.Method == http.MethodPost:
		f.savePost(w, r, 0)
	case strings.HasPrefix(path, "/wp-json/wp/v2/posts/") && r.Method == http.MethodPost:
		id, err := strconv.ParseInt(strings.TrimPrefix(path, "/wp-json/wp/v2/posts/"), 10, 64)
		if err != nil || f.posts[id] == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": "rest_post_invalid_id", "message": "Invalid post ID."})
			return
		}
		f.savePost(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeWordPress) searchTags(w http.ResponseWriter, search string) {
	out := []map[string]any{}
	for name, id := range f.tags {
		if strings.Contains(strings.ToLower(name), strings.ToLower(search)) {
			out = append(out, map[string]any{"id": id, "name": name})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeWordPress) createTag(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	name := body["name"]
	if name == f.failTag {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"code": "db_insert_error", "message": "Could not insert term into the database."})
		return
	}
	if id, ok := f.tags[name]; ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    "term_exists",
			"message": "A term with the name provided already exists.",
			"data":    map[string]any{"status": 400, "term_id": id},
		})
		return
	}
	id := f.id()
	f.tags[name] = id
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": name})
}

func (f *fakeWordPress) findPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("status") != lookupPostStatus {
		f.t.Errorf("slug lookup status = %q", q.Get("status"))
	}
	out := []map[string]any{}
	want := sanitizeSlug(q.Get("slug"))
	for _, p := range f.posts {
		if p.Slug == want {
			out = append(out, map[string]any{"id": p.ID, "slug": p.Slug, "status": p.Status})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeWordPress) savePost(w http.ResponseWriter, r *http.Request, id int64) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	f.postPayload = payload

	var in postPayload
	raw, _ := json.Marshal(payload)
	_ = json.Unmarshal(raw, &in)

	if id == 0 {
		id = f.id()
		f.creates++
	} else {
		f.updates++
	}
	f.posts[id] = &storedPost{
		ID:            id,
		Title:         in.Title,
		Slug:          sanitizeSlug(in.Slug),
		Status:        in.Status,
		Content:       in.Content,
		Tags:          in.Tags,
		FeaturedMedia: in.FeaturedMedia,
		Categories:    in.Categories,
		Meta:          in.Meta,
	}
	slug := f.posts[id].Slug
	writeJSON(w, http.StatusOK, map[string]any{
		"id":   id,
		"slug": slug,
		"link": fmt.Sprintf("%s/%s/", f.srv.URL, slug),
	})
}

// sanitizeSlug mimics WordPress sanitize_title: lowercase, with UTF-8 bytes percent-encoded
// in lowercase hex.
func sanitizeSlug(slug string) string {
	var b strings.Builder
	for _, c := range []byte(strings.ToLower(strings.TrimSpace(slug))) {
		if c >= 0x80 {
			fmt.Fprintf(&b, "%%%02x", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (f *fakeWordPress) snapshot() (posts []storedPost, creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		posts = append(posts, *p)
	}
	return posts, f.creates, f.updates
}
