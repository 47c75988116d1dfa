package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
)

// Package storage keeps a local ledger of successful pushes.

// Store remembers which post revisions were already pushed to which connection.
type Store interface {
	Close() error
	Lookup(key Key) (Entry, bool, error)
	Record(key Key, entry Entry) error
}

// Key identifies one revision of a post on one connection.
type Key struct {
	ConnectionID string
	Slug         string
	ContentHash  string
}

func (k Key) bytes() []byte {
	return []byte(k.ConnectionID + "/" + k.Slug + "/" + k.ContentHash)
}

// Entry is the remote result recorded for a Key.
type Entry struct {
	RemoteID   string    `json:"remote_id"`
	PublicURL  string    `json:"public_url"`
	EditURL    string    `json:"edit_url"`
	RecordedAt time.Time `json:"recorded_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Published converts the entry back into an adapter result.
func (e Entry) Published() domain.Published {
	return domain.Published{RemoteID: e.RemoteID, PublicURL: e.PublicURL, EditURL: e.EditURL}
}

// KeyFor builds the ledger key of post on a connection. The hash covers every field that
// reaches the remote side.
func KeyFor(connectionID string, post domain.NormalizedPost) Key {
	raw, _ := json.Marshal(post)
	sum := sha256.Sum256(raw)
	return Key{
		ConnectionID: connectionID,
		Slug:         strings.TrimSpace(post.Slug),
		ContentHash:  hex.EncodeToString(sum[:16]),
	}
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) Lookup(Key) (Entry, bool, error) { return Entry{}, false, nil }
func (noopStore) Record(Key, Entry) error         { return nil }
