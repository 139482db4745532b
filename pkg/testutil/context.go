package testutil

import (
	"net/http"
	"time"

	id "treasury/pkg/domain"
	"treasury/pkg/requestcontext"
)

// WithCaller marks the request as authenticated by account, as the auth
// middleware would.
func WithCaller(req *http.Request, account id.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), account))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithRequestID sets the correlation id normally assigned by middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
