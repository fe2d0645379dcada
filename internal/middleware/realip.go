package middleware

import (
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// TrustedRealIP applies chi's RealIP only to requests whose peer is one of
// the trusted proxies. Everyone else keeps the socket address, so a client
// cannot choose its own IP with X-Forwarded-For or X-Real-IP.
//
// Entries are IPs or CIDRs; invalid entries are logged and skipped.
func TrustedRealIP(proxies []string) func(http.Handler) http.Handler {
	trusted := parseProxies(proxies)

	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		realIP := chimw.RealIP(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrusted(trusted, PeerIP(r)) {
				realIP.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PeerIP is the host part of r.RemoteAddr
func PeerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseProxies(proxies []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			if ip := net.ParseIP(p); ip != nil && ip.To4() != nil {
				p += "/32"
			} else {
				p += "/128"
			}
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			log.Warn().Str("proxy", p).Msg("ignoring invalid trusted proxy")
			continue
		}
		nets = append(nets, n)
	}
	return nets
}

func isTrusted(trusted []*net.IPNet, host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
