package gateway

import (
	"context"

	"inventory-sync/internal/models"
)

// Gateway is the only component that talks to the remote store. Reads never
// fail loudly: any failure yields an empty result.
type Gateway interface {
	BulkRead(ctx context.Context, collection string) []models.Row
	Write(ctx context.Context, collection string, row models.Row) models.WriteResult
	Ping(ctx context.Context, collection string) models.PingResult
}
