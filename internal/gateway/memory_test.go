package gateway

import (
	"context"
	"testing"

	"inventory-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWriteIsVisibleToReads(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed(models.CollectionProducts, models.Row{models.FieldProductID: "P1"})

	res := m.Write(ctx, models.CollectionProducts, models.Row{models.FieldProductID: "P2"})
	require.True(t, res.Delivered)

	rows := m.BulkRead(ctx, models.CollectionProducts)
	require.Len(t, rows, 2)
	assert.Equal(t, "P2", rows[1].Str(models.FieldProductID))
	assert.Len(t, m.Writes(), 1)
}

func TestMemoryFailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.FailNextWrites(2)
	assert.False(t, m.Write(ctx, models.CollectionGoods, models.Row{}).Delivered)
	assert.False(t, m.Write(ctx, models.CollectionGoods, models.Row{}).Delivered)
	assert.True(t, m.Write(ctx, models.CollectionGoods, models.Row{}).Delivered)

	m.SetOffline(true)
	assert.False(t, m.Write(ctx, models.CollectionGoods, models.Row{}).Delivered)
	assert.Empty(t, m.BulkRead(ctx, models.CollectionGoods))
	assert.False(t, m.Ping(ctx, models.CollectionGoods).Reachable)

	m.SetOffline(false)
	m.SetUnreachable(models.CollectionStaff, true)
	assert.False(t, m.Ping(ctx, models.CollectionStaff).Reachable)
	assert.True(t, m.Ping(ctx, models.CollectionGoods).Reachable)
}

func TestMemoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed(models.CollectionGoods, models.Row{models.FieldGoodsID: "G1"})

	rows := m.BulkRead(ctx, models.CollectionGoods)
	rows[0][models.FieldGoodsID] = "changed"

	assert.Equal(t, "G1", m.Rows(models.CollectionGoods)[0].Str(models.FieldGoodsID))
}
