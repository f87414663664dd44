// Package security provides response hardening and client address extraction.
package security

import (
	"net/http"

	"github.com/unrolled/secure"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	// Production enables HTTPS redirects and HSTS.
	Production bool
}

// DefaultHeadersConfig returns the defaults for a JSON API.
func DefaultHeadersConfig(production bool) HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none'; base-uri 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		Production:            production,
	}
}

// Headers returns middleware applying the configured security headers.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	opts := secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        config.ReferrerPolicy,
		ContentSecurityPolicy: config.ContentSecurityPolicy,
		SSLRedirect:           config.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !config.Production,
	}
	if config.Production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
	}
	return secure.New(opts).Handler
}
