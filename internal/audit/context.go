package audit

import (
	"context"
	"strings"
)

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// WithRequestMeta attaches requester IP and user-agent to the context so the
// recorder can stamp entries without threading HTTP types through services.
func WithRequestMeta(ctx context.Context, ip, userAgent string) context.Context {
	ip = strings.TrimSpace(ip)
	userAgent = strings.TrimSpace(userAgent)
	if ip == "" && userAgent == "" {
		return ctx
	}
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{ip: ip, userAgent: userAgent})
}

// requestMetaFromContext returns IP and user-agent, defaulting to the unknown
// sentinel when absent.
func requestMetaFromContext(ctx context.Context) (string, string) {
	ip, ua := UnknownMeta, UnknownMeta
	if ctx == nil {
		return ip, ua
	}
	if m, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		if m.ip != "" {
			ip = m.ip
		}
		if m.userAgent != "" {
			ua = m.userAgent
		}
	}
	return ip, ua
}
