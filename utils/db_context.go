package utils

import (
	"context"
	"time"
)

// FastQueryTimeout bounds the short lookup queries handlers run against
// single rows.
const FastQueryTimeout = 10 * time.Second

// GetFastQueryContext returns a context with the fast query timeout. A nil
// parent falls back to a background context.
func GetFastQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, FastQueryTimeout)
}
