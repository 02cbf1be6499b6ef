// Package middleware provides HTTP server middleware.
package middleware

import (
	"context"
	"strings"
	"time"

	"KosBridge/internal/metrics"
	pkglog "KosBridge/pkg/log"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Logging returns a middleware that logs every HTTP request and records the
// request metrics. A request id is taken from the X-Request-ID header or
// generated, then injected into the context so downstream log calls carry it.
// Phone numbers appearing in query strings are masked before logging.
func Logging(logger *pkglog.LogHelper, m *metrics.Metrics) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var (
				method    string
				path      string
				ip        string
				requestID string
				operation string
			)

			if tr, ok := transport.FromServerContext(ctx); ok {
				operation = tr.Operation()
				method = operation
				path = operation

				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()
					method = httpReq.Method
					path = httpReq.URL.Path
					if httpReq.URL.RawQuery != "" {
						path = path + "?" + maskQueryPhone(httpReq.URL.RawQuery)
					}
					ip = extractClientIP(httpReq)

					requestID = httpReq.Header.Get("X-Request-ID")
				}
			}
			if requestID == "" {
				requestID = pkglog.GenerateRequestID()
			}

			ctx = pkglog.WithRequestContext(ctx, requestID, "", operation)

			reply, err := handler(ctx, req)

			duration := time.Since(startTime)
			status := extractHTTPStatus(err)

			logger.RequestWithContext(ctx, method, path, status, duration.Milliseconds(),
				"ip", ip,
			)
			m.RecordHTTPRequest(method, routePath(operation, path), statusClass(status), duration)

			return reply, err
		}
	}
}

// extractClientIP resolves the client address behind proxies.
// Priority: X-Real-IP > X-Forwarded-For > RemoteAddr.
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	return req.RemoteAddr
}

// extractHTTPStatus maps an error to the HTTP status the caller will see.
func extractHTTPStatus(err error) int {
	if err == nil {
		return 200
	}
	if ke := kratoserrors.FromError(err); ke != nil {
		return int(ke.Code)
	}
	return 500
}

// maskQueryPhone masks the phoneNumber query parameter so raw line numbers
// never reach the logs.
func maskQueryPhone(rawQuery string) string {
	params := strings.Split(rawQuery, "&")
	for i, p := range params {
		key, value, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		params[i] = key + "=" + pkglog.SanitizeField(key, value)
	}
	return strings.Join(params, "&")
}

// routePath prefers the route pattern over the raw path so metrics stay
// bounded in cardinality.
func routePath(operation, path string) string {
	if operation != "" {
		return operation
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// statusClass buckets a status code for the request counter label.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
