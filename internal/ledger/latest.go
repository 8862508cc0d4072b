package ledger

import (
	"sort"

	"inventory-sync/internal/models"
)

// LatestProductBalances keeps the newest snapshot per batch id. Newer means a
// later record time; on equal times the row read later wins. Batches are
// returned in order of first appearance.
func LatestProductBalances(rows []models.Row) []models.ProductBalance {
	var order []string
	latest := make(map[string]models.ProductBalance)

	for _, r := range rows {
		b := models.ProductBalanceFromRow(r)
		if b.BatchID == "" {
			continue
		}
		existing, seen := latest[b.BatchID]
		if !seen {
			order = append(order, b.BatchID)
			latest[b.BatchID] = b
			continue
		}
		if !b.Timestamp().Before(existing.Timestamp()) {
			latest[b.BatchID] = b
		}
	}

	out := make([]models.ProductBalance, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}

// LatestGoodsBalances is LatestProductBalances for goods snapshots.
func LatestGoodsBalances(rows []models.Row) []models.GoodsBalance {
	var order []string
	latest := make(map[string]models.GoodsBalance)

	for _, r := range rows {
		b := models.GoodsBalanceFromRow(r)
		if b.BatchID == "" {
			continue
		}
		existing, seen := latest[b.BatchID]
		if !seen {
			order = append(order, b.BatchID)
			latest[b.BatchID] = b
			continue
		}
		if !b.Timestamp().Before(existing.Timestamp()) {
			latest[b.BatchID] = b
		}
	}

	out := make([]models.GoodsBalance, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}

// OpenProductBatches returns the consumable batches of one product, oldest
// batch date first.
func OpenProductBatches(rows []models.Row, productID string) []models.ProductBalance {
	var open []models.ProductBalance
	for _, b := range LatestProductBalances(filterRows(rows, models.FieldProductID, productID)) {
		if b.ActualQty > models.Epsilon {
			open = append(open, b)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].BatchTime().Before(open[j].BatchTime())
	})
	return open
}

// OpenGoodsBatches returns the sellable batches of one goods item, oldest
// batch date first.
func OpenGoodsBatches(rows []models.Row, goodsID string) []models.GoodsBalance {
	var open []models.GoodsBalance
	for _, b := range LatestGoodsBalances(filterRows(rows, models.FieldGoodsID, goodsID)) {
		if b.BaseQty > models.Epsilon {
			open = append(open, b)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].BatchTime().Before(open[j].BatchTime())
	})
	return open
}

func filterRows(rows []models.Row, field, value string) []models.Row {
	var out []models.Row
	for _, r := range rows {
		if r.Str(field) == value {
			out = append(out, r)
		}
	}
	return out
}
