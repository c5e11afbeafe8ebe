package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Handle returns the transaction when one is present, otherwise the given
// fallback, always scoped to the request context.
func (c Context) Handle(fallback *gorm.DB) *gorm.DB {
	h := c.Tx
	if h == nil {
		h = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return h.WithContext(ctx)
}
