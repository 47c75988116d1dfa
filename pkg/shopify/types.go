package shopify

// Blog is a Shopify blog that articles can be published to.
type Blog struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type shopEnvelope struct {
	Shop struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Domain      string `json:"domain"`
		MyshopifyDN string `json:"myshopify_domain"`
	} `json:"shop"`
}

type blogsEnvelope struct {
	Blogs []Blog `json:"blogs"`
}

type blogEnvelope struct {
	Blog Blog `json:"blog"`
}

type article struct {
	ID     int64  `json:"id"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

type articlesEnvelope struct {
	Articles []article `json:"articles"`
}

type articleEnvelope struct {
	Article article `json:"article"`
}

type imagePayload struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type articlePayload struct {
	Title       string        `json:"title"`
	BodyHTML    string        `json:"body_html"`
	SummaryHTML string        `json:"summary_html,omitempty"`
	Tags        string        `json:"tags"`
	Published   bool          `json:"published"`
	Handle      string        `json:"handle,omitempty"`
	Image       *imagePayload `json:"image,omitempty"`
	Metafields  []metafield   `json:"metafields,omitempty"`
}

type articleRequest struct {
	Article articlePayload `json:"article"`
}
