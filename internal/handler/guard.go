package handler

import (
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/AlexZinkM/hoh-vault/internal/model"

	"github.com/rs/zerolog/log"
)

// RelayPath is served by the page relay, which enforces the page origin
// itself.
const RelayPath = "/relay"

// Guard admits only requests that come from the approval UI on this
// machine:
//   - Host must be a loopback name, which defeats DNS rebinding;
//   - an Origin header, when sent, must be the approval UI's origin;
//   - state-changing requests must carry Content-Type application/json,
//     so a cross-site page cannot send them without a CORS preflight.
//
// approvalURL is the URL the approval UI is served from.
func Guard(next http.Handler, approvalURL string) http.Handler {
	allowed := OriginOf(approvalURL)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackHost(r.Host) {
			reject(w, r, http.StatusForbidden, "invalid_host", "Request host is not allowed")
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" && r.URL.Path != RelayPath {
			if !strings.EqualFold(strings.TrimSuffix(origin, "/"), allowed) {
				reject(w, r, http.StatusForbidden, "forbidden_origin", "Request origin is not allowed")
				return
			}
		}

		if changesState(r.Method) {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				reject(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// OriginOf returns the scheme://host[:port] origin of rawURL, or "" when
// rawURL has none.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func isLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func changesState(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func reject(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	log.Warn().
		Str("path", r.URL.Path).
		Str("host", r.Host).
		Str("origin", r.Header.Get("Origin")).
		Str("code", code).
		Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}
