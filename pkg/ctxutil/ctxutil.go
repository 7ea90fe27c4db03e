package ctxutil

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requesterKey ctxKey = "requester"
	requestIDKey ctxKey = "request_id"
)

// Requester is the already authenticated and authorized caller of an
// operation: an organizer of ConferenceID identified by Email.
type Requester struct {
	ConferenceID string
	Email        string
}

// WithRequester stores the requester in the context.
func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, requesterKey, r)
}

// RequesterFromCtx extracts the requester from the context.
// Returns false if the value is missing or has no email.
func RequesterFromCtx(ctx context.Context) (Requester, bool) {
	r, ok := ctx.Value(requesterKey).(Requester)
	if !ok || strings.TrimSpace(r.Email) == "" {
		return Requester{}, false
	}
	return r, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
