package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/config"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/storage"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/connections"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/events"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/httpclient"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/shopify"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/urlsafety"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/wordpress"
)

// pluginAdapter exposes the companion-plugin path of the WordPress client as an Adapter.
type pluginAdapter struct{ wp *wordpress.Client }

func (a pluginAdapter) TestConnection(ctx context.Context, cfg domain.PlatformConfig) (domain.Connected, error) {
	return a.wp.TestPluginConnection(ctx, cfg)
}

func (a pluginAdapter) Push(ctx context.Context, cfg domain.PlatformConfig, post domain.NormalizedPost) (domain.Published, error) {
	return a.wp.PushPlugin(ctx, cfg, post)
}

// New builds a Publisher from configuration: connections file, guarded HTTP client,
// platform adapters, ledger and optional event sinks.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	conns, err := connections.Load(cfg.ConnectionsFile)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	ids := make([]string, 0, len(conns.All()))
	for _, c := range conns.All() {
		ids = append(ids, c.ID)
	}
	log.InfoObj("connections loaded", "connections_meta", map[string]any{
		"count":   len(ids),
		"enabled": len(conns.Enabled()),
		"ids":     ids,
	})

	guard := urlsafety.New(nil)
	client := httpclient.New(httpclient.Options{
		Timeout:       cfg.UploadTimeout,
		UserAgent:     cfg.UserAgent,
		RedirectCheck: guard.Check,
		DialControl:   urlsafety.DialControl,
	})

	wp := wordpress.New(wordpress.Options{
		HTTP:             client,
		Guard:            guard,
		Logger:           log,
		LookupTimeout:    cfg.LookupTimeout,
		UploadTimeout:    cfg.UploadTimeout,
		DownloadTimeout:  cfg.DownloadTimeout,
		PluginNamespaces: cfg.PluginNamespaces,
	})
	shop := shopify.New(shopify.Options{
		HTTP:          client,
		Guard:         guard,
		Logger:        log,
		APIVersion:    cfg.ShopifyAPIVersion,
		LookupTimeout: cfg.LookupTimeout,
		UploadTimeout: cfg.UploadTimeout,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return NewPublisher(Deps{
		Connections: conns,
		Adapters: map[string]Adapter{
			connections.PlatformWordPress:       wp,
			connections.PlatformWordPressPlugin: pluginAdapter{wp: wp},
			connections.PlatformShopify:         shop,
		},
		Blogs:  shop,
		Store:  store,
		Fanout: fanout,
		Logger: log,
	})
}

// buildFanout loads the sinks file when one is configured. No file means no events.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*events.Fanout, error) {
	if strings.TrimSpace(cfg.SinksFile) == "" {
		log.DebugObj("no sinks file configured; publish events disabled", "sinks_file", cfg.SinksFile)
		return events.NewFanout(nil, log), nil
	}

	reg, err := events.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks: %w", err)
	}
	enabled := reg.Enabled()
	sinks, err := events.BuildAll(ctx, events.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, s := range enabled {
		summaries = append(summaries, map[string]string{"id": s.ID, "type": s.Type})
	}
	log.InfoObj("event sinks loaded", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})
	return events.NewFanout(sinks, log), nil
}
