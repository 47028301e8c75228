package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/room4-2/arka/messages"
)

// RemoteConfig is served by the relay at /api/config
type RemoteConfig struct {
	ForceAurora bool `json:"forceAurora"`
}

// FetchConfig reads /api/config from the relay behind wsURL
func FetchConfig(ctx context.Context, wsURL string) (RemoteConfig, error) {
	var cfg RemoteConfig

	endpoint, err := APIURL(wsURL, "/api/config")
	if err != nil {
		return cfg, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return cfg, fmt.Errorf("build config request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return cfg, fmt.Errorf("fetch config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cfg, fmt.Errorf("fetch config: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := messages.Unmarshal(body, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// APIURL maps ws(s)://host/... to http(s)://host<path>
func APIURL(wsURL, path string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}

	u.Path = path
	u.RawQuery = ""
	return u.String(), nil
}
