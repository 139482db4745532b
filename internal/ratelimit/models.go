// Package ratelimit throttles authenticated callers with a sliding window
// per account and endpoint class.
package ratelimit

import (
	"context"
	"net/http"
	"time"
)

// Class groups endpoints that share a budget.
type Class string

const (
	ClassRead  Class = "read"
	ClassWrite Class = "write"
)

// ClassOf puts safe methods in the read class and everything else in write.
func ClassOf(r *http.Request) Class {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limit is the number of requests allowed per window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the oldest request in the
// window expires, never less than one.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Store records requests in a sliding window keyed by an opaque string.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit, now time.Time) (Result, error)
}
