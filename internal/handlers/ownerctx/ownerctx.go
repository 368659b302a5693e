package ownerctx

import (
	"context"

	"github.com/avdeev/gymgate/internal/models"
)

type ctxKey string

const ownerKey ctxKey = "owner"

// Create a new context with the owner
func New(ctx context.Context, o models.Owner) context.Context {
	return context.WithValue(ctx, ownerKey, o)
}

// Extract the owner from the context
func FromContext(ctx context.Context) (models.Owner, bool) {
	o, ok := ctx.Value(ownerKey).(models.Owner)
	return o, ok
}
