package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/storage"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/connections"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/events"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/shopify"
)

// Adapter is the surface every platform adapter exposes.
type Adapter interface {
	TestConnection(ctx context.Context, cfg domain.PlatformConfig) (domain.Connected, error)
	Push(ctx context.Context, cfg domain.PlatformConfig, post domain.NormalizedPost) (domain.Published, error)
}

// BlogLister lists the blogs of a Shopify store.
type BlogLister interface {
	ListBlogs(ctx context.Context, cfg domain.PlatformConfig) []shopify.Blog
}

// Deps are the collaborators of a Publisher. Store, Fanout and Logger may be nil.
type Deps struct {
	Connections *connections.Registry
	Adapters    map[string]Adapter
	Blogs       BlogLister
	Store       storage.Store
	Fanout      *events.Fanout
	Logger      logger.Logger
}

// Publisher routes posts to the adapter of a configured connection, keeps the local
// ledger and emits publish events.
type Publisher struct {
	conns    *connections.Registry
	adapters map[string]Adapter
	blogs    BlogLister
	store    storage.Store
	fanout   *events.Fanout
	log      logger.Logger
}

// PushOptions tune a single push.
type PushOptions struct {
	// Force pushes even when the ledger already holds this revision.
	Force bool
}

// Result describes the outcome of a push.
type Result struct {
	ConnectionID    string           `json:"connection_id"`
	Platform        string           `json:"platform"`
	Published       domain.Published `json:"published"`
	Skipped         bool             `json:"skipped"`
	EventsDelivered int              `json:"events_delivered"`
}

// NewPublisher validates deps and builds a Publisher.
func NewPublisher(d Deps) (*Publisher, error) {
	if d.Connections == nil {
		return nil, errors.New("connections registry must not be nil")
	}
	if len(d.Adapters) == 0 {
		return nil, errors.New("no platform adapters configured")
	}
	store := d.Store
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Publisher{
		conns:    d.Connections,
		adapters: d.Adapters,
		blogs:    d.Blogs,
		store:    store,
		fanout:   d.Fanout,
		log:      logger.Ensure(d.Logger),
	}, nil
}

// Test runs the connection test of a configured connection.
func (p *Publisher) Test(ctx context.Context, connectionID string) (domain.Connected, error) {
	conn, adapter, err := p.resolve(connectionID)
	if err != nil {
		return domain.Connected{}, err
	}

	res, err := adapter.TestConnection(ctx, conn.PlatformConfig())
	if err != nil {
		p.log.WarnObj("connection test failed", "connection_test", failureFields(conn, err))
		return domain.Connected{}, err
	}
	p.log.InfoObj("connection test passed", "connection_test", map[string]any{
		"connection_id": conn.ID,
		"platform":      conn.Route(),
		"platform_name": res.PlatformName,
		"account":       res.AccountIdentity,
	})
	return res, nil
}

// Blogs lists the blogs of a Shopify connection.
func (p *Publisher) Blogs(ctx context.Context, connectionID string) ([]shopify.Blog, error) {
	conn, _, err := p.resolve(connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Platform != connections.PlatformShopify || p.blogs == nil {
		return nil, domain.Fail(domain.KindValidation, "connection %q is not a Shopify store", conn.ID)
	}
	return p.blogs.ListBlogs(ctx, conn.PlatformConfig()), nil
}

// Push publishes post to the connection. An identical revision already recorded in the
// ledger is skipped unless opts.Force is set. Ledger and event failures are logged only.
func (p *Publisher) Push(ctx context.Context, connectionID string, post domain.NormalizedPost, opts PushOptions) (Result, error) {
	conn, adapter, err := p.resolve(connectionID)
	if err != nil {
		return Result{}, err
	}
	res := Result{ConnectionID: conn.ID, Platform: conn.Route()}
	key := storage.KeyFor(conn.ID, post)

	if !opts.Force {
		entry, found, err := p.store.Lookup(key)
		switch {
		case err != nil:
			p.log.WarnObj("ledger lookup failed", "ledger_error", map[string]any{
				"connection_id": conn.ID,
				"error":         err.Error(),
			})
		case found:
			p.log.InfoObj("post unchanged since last push; skipping", "publish_skip", map[string]any{
				"connection_id": conn.ID,
				"slug":          key.Slug,
				"remote_id":     entry.RemoteID,
				"recorded_at":   entry.RecordedAt,
			})
			res.Published = entry.Published()
			res.Skipped = true
			return res, nil
		}
	}

	cfg := conn.PlatformConfig()
	start := time.Now()
	published, err := adapter.Push(ctx, cfg, post)
	if err != nil {
		fields := failureFields(conn, err)
		fields["slug"] = post.Slug
		p.log.ErrorObj("push failed", "publish_error", fields)
		return res, err
	}
	res.Published = published

	p.log.InfoObj("post published", "publish_result", map[string]any{
		"connection_id": conn.ID,
		"platform":      res.Platform,
		"slug":          post.Slug,
		"remote_id":     published.RemoteID,
		"public_url":    published.PublicURL,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})

	if err := p.store.Record(key, storage.Entry{
		RemoteID:  published.RemoteID,
		PublicURL: published.PublicURL,
		EditURL:   published.EditURL,
	}); err != nil {
		p.log.WarnObj("ledger record failed", "ledger_error", map[string]any{
			"connection_id": conn.ID,
			"error":         err.Error(),
		})
	}

	evt := events.NewEvent(conn.ID, res.Platform, post, domain.ResolveStatus(post, cfg), published)
	delivered, err := p.fanout.Publish(ctx, evt)
	res.EventsDelivered = delivered
	if err != nil {
		p.log.WarnObj("publish event not delivered to every sink", "event_error", map[string]any{
			"connection_id": conn.ID,
			"delivered":     delivered,
			"error":         err.Error(),
		})
	}
	return res, nil
}

// Close releases the ledger and event sinks.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return errors.Join(p.store.Close(), p.fanout.Close())
}

func (p *Publisher) resolve(connectionID string) (connections.Connection, Adapter, error) {
	conn, ok := p.conns.ByID(connectionID)
	if !ok {
		return connections.Connection{}, nil, domain.Fail(domain.KindValidation, "unknown connection %q", connectionID)
	}
	if !conn.IsEnabled() {
		return connections.Connection{}, nil, domain.Fail(domain.KindValidation, "connection %q is disabled", conn.ID)
	}
	adapter, ok := p.adapters[conn.Route()]
	if !ok {
		return connections.Connection{}, nil, fmt.Errorf("no adapter for platform %q", conn.Route())
	}
	return conn, adapter, nil
}

func failureFields(conn connections.Connection, err error) map[string]any {
	f := domain.AsFailure(err)
	return map[string]any{
		"connection_id": conn.ID,
		"platform":      conn.Route(),
		"kind":          string(f.Kind),
		"error":         err.Error(),
	}
}
