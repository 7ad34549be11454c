package webd

import (
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	ghandlers "github.com/gorilla/handlers"
	"golang.org/x/time/rate"
)

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, If-None-Match")
		w.Header().Add("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddlewareFunc rejects requests beyond the limiter's rate with 429.
func rateLimitMiddlewareFunc(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSONError(w, http.StatusTooManyRequests, errTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAccessLog logs one request in the fields of the Common Log Format.
func (s *WebDaemon) writeAccessLog(_ io.Writer, params ghandlers.LogFormatterParams) {
	req := params.Request
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	for _, v := range req.Header.Values("X-Forwarded-For") {
		host += "->" + v
	}
	uri := req.RequestURI
	if uri == "" {
		uri = params.URL.RequestURI()
	}
	s.logger.Debug("HTTP",
		"remote", host,
		"ts", params.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
		"method", req.Method,
		"uri", uri,
		"proto", req.Proto,
		"status", params.StatusCode,
		"size", humanize.Bytes(uint64(params.Size)),
		"elapsed", time.Since(params.TimeStamp).Round(time.Microsecond))
}

func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(os.Stdout, next, s.writeAccessLog)
}
