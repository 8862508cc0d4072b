package redisclient

import (
	"context"
	"testing"

	"inventory-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueStateRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires redis")

	c, err := NewClient("localhost:6379", "", 15, "erp_sync_queue_test")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	defer c.GetClient().Del(ctx, "erp_sync_queue_test")

	tasks, err := c.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, c.SaveTasks(ctx, []models.Task{
		{ID: "t1", Target: models.CollectionGoods, Payload: models.Row{models.FieldGoodsID: "G1"}},
	}))

	tasks, err = c.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "G1", tasks[0].Payload.Str(models.FieldGoodsID))

	n, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
