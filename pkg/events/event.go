package events

import (
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
)

// TypePostPublished names the only event kind emitted today.
const TypePostPublished = "post.published"

// Event is emitted downstream after a post was published to a connection.
type Event struct {
	ConnectionID string    `json:"connection_id"`
	Platform     string    `json:"platform"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	RemoteID     string    `json:"remote_id"`
	PublicURL    string    `json:"public_url"`
	EditURL      string    `json:"edit_url"`
	PublishedAt  time.Time `json:"published_at"`
}

// NewEvent builds the event for a successful push.
func NewEvent(connectionID, platform string, post domain.NormalizedPost, status string, res domain.Published) Event {
	return Event{
		ConnectionID: connectionID,
		Platform:     platform,
		Slug:         post.Slug,
		Title:        post.Title,
		Status:       status,
		RemoteID:     res.RemoteID,
		PublicURL:    res.PublicURL,
		EditURL:      res.EditURL,
		PublishedAt:  time.Now().UTC(),
	}
}

// DeliveryKey identifies one delivery of this event. Receivers can use it to drop resends;
// a later push of the same remote post yields a new key.
func (e Event) DeliveryKey() string {
	return e.ConnectionID + "/" + e.RemoteID + "@" + e.PublishedAt.UTC().Format(time.RFC3339Nano)
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type":    TypePostPublished,
		"connection_id": e.ConnectionID,
		"platform":      e.Platform,
	}
}
