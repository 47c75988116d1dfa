package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/transcode"
	"github.com/gabriel-vasile/mimetype"
)

const (
	fallbackMIME     = "image/jpeg"
	fallbackFilename = "featured-image"
	maxImageBytes    = 20 << 20 // 20 MiB
	maxFilenameLen   = 80
)

var (
	reNonASCIIName = regexp.MustCompile(`[^a-z0-9-]+`)
	reNameDashes   = regexp.MustCompile(`-{2,}`)
)

var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
}

var mimeToExt = map[string]string{
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/pjpeg":   "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/avif":    "avif",
	"image/bmp":     "bmp",
	"image/x-icon":  "ico",
}

// downloadedImage is a fetched featured image ready for re-upload.
type downloadedImage struct {
	data []byte
	mime string
}

func (img downloadedImage) ext() string {
	if ext, ok := mimeToExt[img.mime]; ok {
		return ext
	}
	return "jpg"
}

// downloadImage fetches a caller-supplied image after vetting its URL.
func (c *Client) downloadImage(ctx context.Context, rawURL string) (downloadedImage, error) {
	if err := c.guard.Check(ctx, rawURL); err != nil {
		return downloadedImage{}, fmt.Errorf("image url rejected: %w", err)
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Timeout: c.downloadTimeout,
	})
	if err != nil {
		return downloadedImage{}, fmt.Errorf("download image: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		return downloadedImage{}, fmt.Errorf("download image: status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return downloadedImage{}, errors.New("download image: empty body")
	}
	if len(body) > maxImageBytes {
		return downloadedImage{}, fmt.Errorf("download image: %d bytes exceeds limit", len(body))
	}

	return downloadedImage{
		data: body,
		mime: inferMIME(resp.Header().Get("Content-Type"), rawURL, body),
	}, nil
}

// inferMIME prefers the response Content-Type, then the URL extension, then content sniffing.
func inferMIME(contentType, rawURL string, body []byte) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ct != "" && ct != "application/octet-stream" && ct != "binary/octet-stream" {
		return ct
	}
	if u, err := url.Parse(rawURL); err == nil {
		if m, ok := extToMIME[strings.ToLower(path.Ext(u.Path))]; ok {
			return m
		}
	}
	if len(body) > 0 {
		detected := mimetype.Detect(body)
		if strings.HasPrefix(detected.String(), "image/") {
			return strings.SplitN(detected.String(), ";", 2)[0]
		}
	}
	return fallbackMIME
}

// imageFilename derives an ASCII, filesystem-safe filename from the post title. Letters
// without an ASCII form are dropped.
func imageFilename(title string, img downloadedImage) string {
	name := reNonASCIIName.ReplaceAllString(transcode.Slugify(title), "-")
	name = strings.Trim(reNameDashes.ReplaceAllString(name, "-"), "-")
	if len(name) > maxFilenameLen {
		name = strings.Trim(name[:maxFilenameLen], "-")
	}
	if name == "" {
		name = fallbackFilename
	}
	return name + "." + img.ext()
}

// uploadMedia sends the image bytes to the media library and returns the attachment id.
func (c *Client) uploadMedia(ctx context.Context, s site, img downloadedImage, filename string) (wpMedia, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    s.api("/wp/v2/media"),
		Headers: map[string]string{
			"Content-Type":        img.mime,
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
		},
		Body:      img.data,
		BasicAuth: s.auth,
		Timeout:   c.uploadTimeout,
	})
	if err != nil {
		return wpMedia{}, transportFailure(s, "uploading the featured image", err)
	}
	if !httpclient.IsSuccess(resp) {
		return wpMedia{}, responseFailure(resp, "uploading the featured image")
	}
	var media wpMedia
	if err := decodeJSON(resp.Body(), &media); err != nil {
		return wpMedia{}, err
	}
	if media.ID <= 0 {
		return wpMedia{}, errors.New("media upload response has no id")
	}
	return media, nil
}

// fireAndForget runs task detached from the caller: the caller's cancellation does not
// reach it, nobody waits for it, and its only observable outcome is what it logs.
func (c *Client) fireAndForget(ctx context.Context, name string, task func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	go func() {
		taskCtx, cancel := context.WithTimeout(detached, c.lookupTimeout)
		defer cancel()
		if err := task(taskCtx); err != nil {
			c.log.DebugObj("wordpress background task failed", "wordpress_background_error", map[string]any{
				"task":  name,
				"error": err.Error(),
			})
		}
	}()
}

// patchAltText sets the alt text of an uploaded attachment.
func (c *Client) patchAltText(ctx context.Context, s site, mediaID int64, alt string) error {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:    http.MethodPatch,
		URL:       s.api(fmt.Sprintf("/wp/v2/media/%d", mediaID)),
		Body:      map[string]string{"alt_text": alt},
		BasicAuth: s.auth,
	})
	if err != nil {
		return err
	}
	if !httpclient.IsSuccess(resp) {
		return fmt.Errorf("alt text patch status %d", resp.StatusCode())
	}
	return nil
}
