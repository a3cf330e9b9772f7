// Package tenant carries the resolved company scope through request contexts.
//
// Resolution itself happens upstream: the platform edge authenticates the
// caller and injects the company identifier. This package only transports the
// already-resolved identifier and rejects requests that arrive without one.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type companyContextKey struct{}

// WithCompany stores the company ID in context.
func WithCompany(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, companyContextKey{}, id)
}

// FromContext extracts the company ID from context.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(companyContextKey{}).(uuid.UUID)
	return id, ok
}
