// Package credentials converts the single opaque string stored for a WordPress connection
// into a typed credential and back.
//
// Wire format:
//
//	plugin mode:        "plugin:" + apiKey
//	app password mode:  base64("username" + ":" + "application password")
package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
)

// Mode selects how a WordPress site is authenticated.
type Mode string

const (
	ModeAppPassword Mode = "app_password"
	ModePlugin      Mode = "plugin"

	pluginPrefix = "plugin:"
	delimiter    = ":"
)

// Credential is the decoded form of a stored WordPress key.
type Credential struct {
	Mode        Mode
	Username    string
	AppPassword string
	APIKey      string
}

// AppPassword builds an Application Password credential.
func AppPassword(username, password string) Credential {
	return Credential{Mode: ModeAppPassword, Username: username, AppPassword: password}
}

// PluginKey builds a companion-plugin credential.
func PluginKey(apiKey string) Credential {
	return Credential{Mode: ModePlugin, APIKey: apiKey}
}

// Encode serializes c into the stored wire format.
func Encode(c Credential) (string, error) {
	switch c.Mode {
	case ModePlugin:
		if c.APIKey == "" {
			return "", errors.New("plugin credential requires an api key")
		}
		return pluginPrefix + c.APIKey, nil
	case ModeAppPassword, "":
		if c.Username == "" {
			return "", errors.New("app password credential requires a username")
		}
		if strings.Contains(c.Username, delimiter) {
			return "", fmt.Errorf("username must not contain %q", delimiter)
		}
		raw := c.Username + delimiter + c.AppPassword
		return base64.StdEncoding.EncodeToString([]byte(raw)), nil
	default:
		return "", fmt.Errorf("unknown credential mode %q", c.Mode)
	}
}

// Decode parses a stored key. It never fails: anything undecodable yields an empty
// app password credential, which Connected reports as not usable.
func Decode(encoded string) Credential {
	if strings.HasPrefix(encoded, pluginPrefix) {
		return PluginKey(strings.TrimPrefix(encoded, pluginPrefix))
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Credential{Mode: ModeAppPassword}
	}
	username, password, found := strings.Cut(string(raw), delimiter)
	if !found {
		return Credential{Mode: ModeAppPassword}
	}
	return AppPassword(username, password)
}

// Connected reports whether c carries enough material to authenticate.
func (c Credential) Connected() bool {
	if c.Mode == ModePlugin {
		return c.APIKey != ""
	}
	return c.Username != "" && c.AppPassword != ""
}

// PlatformConfig fills the credential fields of a PlatformConfig for baseURL.
func (c Credential) PlatformConfig(baseURL string) domain.PlatformConfig {
	cfg := domain.PlatformConfig{BaseURL: baseURL}
	if c.Mode == ModePlugin {
		cfg.APIKey = c.APIKey
		return cfg
	}
	cfg.Username = c.Username
	cfg.AppPassword = c.AppPassword
	return cfg
}
