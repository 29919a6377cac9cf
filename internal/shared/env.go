package shared

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// BaseURLEnvVars lists the environment variables consulted for the API base URL, in priority order.
var BaseURLEnvVars = []string{"MUSICBOX_API_BASE_URL", "MUSICBOX_API_BASE", "MUSICBOX_BACKEND_URL"}

const (
	// HostEnvVar names the host used for the same-host fallback (e.g. a preview machine).
	HostEnvVar = "MUSICBOX_HOST"

	DefaultBaseURL         = "http://localhost:3001"
	DefaultFallbackPort    = 3001
	DefaultNotificationTTL = 4500 * time.Millisecond
)

// BaseURL is a resolved API base URL along with where it came from.
type BaseURL struct {
	URL     string
	Source  string // env var name, "config", "same-host" or "default"
	FromEnv bool
}

// Hint describes which configuration source produced the URL, for diagnostics.
func (b BaseURL) Hint() string {
	if b.FromEnv {
		return fmt.Sprintf("Using env base URL from %s: %s", b.Source, b.URL)
	}
	return fmt.Sprintf(
		"No API base env set (%s). Falling back to %s (%s)",
		strings.Join(BaseURLEnvVars, " / "), b.URL, b.Source,
	)
}

// ResolveBaseURL resolves the API base URL.
//
// The first non-empty value wins: the [BaseURLEnvVars], cfg.BaseURL, the
// same-host convention (http://$MUSICBOX_HOST:<fallback port>) and finally
// [DefaultBaseURL]. Trailing slashes are removed. A nil getenv uses [os.Getenv].
func ResolveBaseURL(cfg APIConfig, getenv func(string) string) BaseURL {
	if getenv == nil {
		getenv = os.Getenv
	}

	for _, name := range BaseURLEnvVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return BaseURL{URL: trimBase(v), Source: name, FromEnv: true}
		}
	}

	if v := strings.TrimSpace(cfg.BaseURL); v != "" {
		return BaseURL{URL: trimBase(v), Source: "config"}
	}

	if host := strings.TrimSpace(getenv(HostEnvVar)); host != "" {
		port := cfg.FallbackPort
		if port <= 0 {
			port = DefaultFallbackPort
		}
		scheme := "http"
		if i := strings.Index(host, "://"); i >= 0 {
			scheme, host = host[:i], host[i+3:]
		}
		host = strings.TrimRight(host, "/")
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		return BaseURL{URL: fmt.Sprintf("%s://%s:%d", scheme, host, port), Source: "same-host"}
	}

	return BaseURL{URL: DefaultBaseURL, Source: "default"}
}

func trimBase(u string) string {
	return strings.TrimRight(u, "/")
}
