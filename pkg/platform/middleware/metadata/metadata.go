// Package metadata extracts client network and device information from the
// request and stores it in the context. Audit events record these values, so
// the middleware should run early in the chain.
package metadata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"custos/pkg/requestcontext"
)

// ClientMetadata resolves the client IP, raw User-Agent, and a parsed device
// summary, and adds all three to the request context.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawUA := r.Header.Get("User-Agent")

		ctx := r.Context()
		ctx = requestcontext.WithClientMetadata(ctx, ClientIPFromRequest(r), rawUA)
		ctx = requestcontext.WithDevice(ctx, DeviceLabel(rawUA))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceLabel condenses a User-Agent string into a short human-readable
// summary such as "Firefox 128.0 / Ubuntu". Unparseable agents fall back to
// the raw string so audit records never lose the original value entirely.
func DeviceLabel(rawUA string) string {
	if rawUA == "" {
		return ""
	}

	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "bot"
	}

	name, version := ua.Browser()
	if name == "" {
		// Curl, SDK clients and the like; keep whatever they sent, shortened.
		if len(rawUA) > 64 {
			return rawUA[:64]
		}
		return rawUA
	}

	label := name
	if version != "" {
		label = fmt.Sprintf("%s %s", name, version)
	}
	if osInfo := ua.OSInfo(); osInfo.Name != "" {
		label = fmt.Sprintf("%s / %s", label, osInfo.Name)
	}
	return label
}

// ClientIPFromRequest extracts the originating client IP, preferring proxy
// headers over the socket address.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For may list several hops; the first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6); strip the port.
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
