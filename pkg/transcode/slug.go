package transcode

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reMarkdownLink = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	reHTMLTag      = regexp.MustCompile(`<[^>]+>`)
	reEmphasis     = regexp.MustCompile("[*_~`]+")
	reNonSlug      = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	reWhitespace   = regexp.MustCompile(`\s+`)
	reDashes       = regexp.MustCompile(`-{2,}`)
)

// Slugify turns heading or title text into a stable anchor id: lowercase, diacritics removed,
// markdown emphasis and link syntax stripped, punctuation dropped, whitespace collapsed to
// single hyphens. The same input always yields the same output.
func Slugify(text string) string {
	s := reMarkdownLink.ReplaceAllString(text, "$1")
	s = reHTMLTag.ReplaceAllString(s, "")
	s = reEmphasis.ReplaceAllString(s, "")
	s = stripDiacritics(strings.ToLower(s))
	s = reNonSlug.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = reDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
