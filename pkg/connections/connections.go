package connections

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/pkg/credentials"
	"gopkg.in/yaml.v3"
)

// Package connections loads the configured publishing destinations (YAML/JSON).

// Supported platforms.
const (
	PlatformWordPress       = "wordpress"
	PlatformWordPressPlugin = "wordpress_plugin"
	PlatformShopify         = "shopify"
)

// Connection is one configured destination site or store.
type Connection struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	Platform          string `json:"platform" yaml:"platform"`
	BaseURL           string `json:"base_url" yaml:"base_url"`
	Credential        string `json:"credential" yaml:"credential"`
	CredentialEnv     string `json:"credential_env" yaml:"credential_env"`
	AccessToken       string `json:"access_token" yaml:"access_token"`
	AccessTokenEnv    string `json:"access_token_env" yaml:"access_token_env"`
	DefaultStatus     string `json:"default_status" yaml:"default_status"`
	DefaultCategoryID string `json:"default_category_id" yaml:"default_category_id"`
	BlogID            string `json:"blog_id" yaml:"blog_id"`
	Enabled           *bool  `json:"enabled" yaml:"enabled"`
}

type registryFile struct {
	Connections []Connection `json:"connections" yaml:"connections"`
}

// Registry is an immutable, validated set of connections.
type Registry struct {
	all []Connection
	idx map[string]Connection
}

// Load reads a registry from a YAML or JSON file.
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("connections file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open connections file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read connections file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes and validates a registry document. ext selects the format; empty tries all.
func Parse(data []byte, ext string) (*Registry, error) {
	file, err := parseFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Connections) == 0 {
		return nil, errors.New("connections file contains no connections entries")
	}

	reg := &Registry{
		all: make([]Connection, 0, len(file.Connections)),
		idx: make(map[string]Connection, len(file.Connections)),
	}
	for i := range file.Connections {
		c := sanitize(file.Connections[i])
		if err := validate(c); err != nil {
			return nil, fmt.Errorf("connection[%d]: %w", i, err)
		}
		if _, exists := reg.idx[c.ID]; exists {
			return nil, fmt.Errorf("duplicate connection id %q", c.ID)
		}
		reg.all = append(reg.all, c)
		reg.idx[c.ID] = c
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var f registryFile
		if err := d.fn(data, &f); err != nil {
			errs = append(errs, fmt.Errorf("decode %s connections: %w", d.name, err))
			continue
		}
		return f, nil
	}
	if len(errs) == 0 {
		return registryFile{}, fmt.Errorf("connections file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return registryFile{}, errors.Join(errs...)
}

func sanitize(c Connection) Connection {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Credential = strings.TrimSpace(c.Credential)
	c.CredentialEnv = strings.TrimSpace(c.CredentialEnv)
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	c.AccessTokenEnv = strings.TrimSpace(c.AccessTokenEnv)
	c.DefaultStatus = strings.ToLower(strings.TrimSpace(c.DefaultStatus))
	c.DefaultCategoryID = strings.TrimSpace(c.DefaultCategoryID)
	c.BlogID = strings.TrimSpace(c.BlogID)

	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	return c
}

func validate(c Connection) error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required for connection %q", c.ID)
	}
	switch c.DefaultStatus {
	case "", domain.StatusDraft, domain.StatusPublished:
	default:
		return fmt.Errorf("default_status %q for connection %q must be draft or published", c.DefaultStatus, c.ID)
	}
	switch c.Platform {
	case PlatformWordPress, PlatformWordPressPlugin:
		if c.Credential == "" && c.CredentialEnv == "" {
			return fmt.Errorf("credential or credential_env is required for connection %q", c.ID)
		}
	case PlatformShopify:
		if c.AccessToken == "" && c.AccessTokenEnv == "" {
			return fmt.Errorf("access_token or access_token_env is required for connection %q", c.ID)
		}
	case "":
		return fmt.Errorf("platform is required for connection %q", c.ID)
	default:
		return fmt.Errorf("unsupported platform %q for connection %q", c.Platform, c.ID)
	}
	return nil
}

// All returns a copy of every connection in file order.
func (r *Registry) All() []Connection {
	out := make([]Connection, len(r.all))
	copy(out, r.all)
	return out
}

// Enabled returns the connections not switched off.
func (r *Registry) Enabled() []Connection {
	out := make([]Connection, 0, len(r.all))
	for _, c := range r.all {
		if c.IsEnabled() {
			out = append(out, c)
		}
	}
	return out
}

// ByID returns the connection with the given id.
func (r *Registry) ByID(id string) (Connection, bool) {
	c, ok := r.idx[strings.TrimSpace(id)]
	return c, ok
}

// IsEnabled reports whether the connection may be used.
func (c Connection) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// Route returns the adapter path for the connection. A WordPress credential stored in
// plugin mode routes to the companion plugin.
func (c Connection) Route() string {
	if c.Platform == PlatformWordPress && c.credential().Mode == credentials.ModePlugin {
		return PlatformWordPressPlugin
	}
	return c.Platform
}

// PlatformConfig builds the adapter input, decoding stored WordPress credentials and
// resolving secrets held in environment variables.
func (c Connection) PlatformConfig() domain.PlatformConfig {
	var cfg domain.PlatformConfig
	switch c.Platform {
	case PlatformWordPress, PlatformWordPressPlugin:
		cred := c.credential()
		if c.Platform == PlatformWordPressPlugin && cred.Mode != credentials.ModePlugin {
			// A bare key is accepted for an explicit plugin connection.
			cred = credentials.PluginKey(c.secret(c.Credential, c.CredentialEnv))
		}
		cfg = cred.PlatformConfig(c.BaseURL)
	default:
		cfg = domain.PlatformConfig{BaseURL: c.BaseURL, AccessToken: c.secret(c.AccessToken, c.AccessTokenEnv)}
	}
	cfg.DefaultStatus = c.DefaultStatus
	cfg.DefaultCategoryID = c.DefaultCategoryID
	cfg.BlogID = c.BlogID
	return cfg
}

func (c Connection) credential() credentials.Credential {
	return credentials.Decode(c.secret(c.Credential, c.CredentialEnv))
}

func (c Connection) secret(value, env string) string {
	if value != "" {
		return value
	}
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}
