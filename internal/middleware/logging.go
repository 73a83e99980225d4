package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"thumbgrid/internal/logging"
)

// LoggingConfig controls which requests reach the access log.
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged.
	SkipPaths []string
	// LogHealthChecks includes probe endpoints (/healthz, /version).
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything except the Prometheus scrape.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{SkipPaths: []string{"/metrics"}, LogHealthChecks: true}
}

var probePaths = map[string]bool{
	"/healthz": true,
	"/version": true,
}

// Logger returns access-log middleware writing one W3C extended format line
// per request:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(User-Agent)
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skips(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			began := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			logging.Info("%s", accessLine(r, rec, time.Since(began)))
		})
	}
}

func (c LoggingConfig) skips(path string) bool {
	if hasAnyPrefix(path, c.SkipPaths) {
		return true
	}
	return probePaths[path] && !c.LogHealthChecks
}

func accessLine(r *http.Request, rec *statusRecorder, took time.Duration) string {
	stamp := time.Now().UTC().Format("2006-01-02 15:04:05")
	fields := []string{
		stamp,
		orDash(clean(clientIP(r))),
		orDash(clean(r.Method)),
		orDash(clean(r.URL.Path)),
		orDash(clean(r.URL.RawQuery)),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.size, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(quoteField(clean(r.UserAgent()))),
	}
	return strings.Join(fields, " ")
}

// clean drops control characters so a request cannot forge extra log lines
// or emit terminal escapes. Line breaks become spaces and tabs survive.
func clean(s string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c == '\n', c == '\r':
			return ' '
		case c == '\t':
			return c
		case c < 0x20, c == 0x7f:
			return -1
		}
		return c
	}, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address without its port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// quoteField wraps values holding whitespace or quotes in double quotes,
// doubling any embedded quote.
func quoteField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
