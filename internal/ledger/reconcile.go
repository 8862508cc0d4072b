package ledger

import (
	"math"
	"time"

	"inventory-sync/internal/models"
)

// ReconcileProducts recomputes one snapshot per product intake batch from the
// full intake and consumption ledgers. Output follows intake read order.
// Running it twice over the same ledgers yields the same quantities.
func ReconcileProducts(intake, consumption []models.Row, now time.Time) []models.ProductBalance {
	usedPlanned := make(map[string]float64)
	usedActual := make(map[string]float64)
	for _, r := range consumption {
		c := models.ProductConsumptionFromRow(r)
		usedPlanned[c.BatchID] += c.PlannedQty
		usedActual[c.BatchID] += c.ActualQty
	}

	recordedAt := models.FormatDateTime(now)
	seen := make(map[string]bool)
	var out []models.ProductBalance

	for _, r := range intake {
		batch := models.ProductIntakeFromRow(r)
		if batch.BatchID == "" || seen[batch.BatchID] || !models.IsIntakeKind(batch.Kind) {
			continue
		}
		seen[batch.BatchID] = true

		remainingActual := batch.Qty - usedActual[batch.BatchID]
		out = append(out, models.ProductBalance{
			BatchID:    batch.BatchID,
			ProductID:  batch.ProductID,
			Product:    batch.Product,
			PlannedQty: Round4(batch.Qty - usedPlanned[batch.BatchID]),
			ActualQty:  Round4(remainingActual),
			Unit:       batch.Unit,
			Price:      batch.Price,
			Value:      Round2(remainingActual * batch.Price),
			IntakeDate: batch.Date,
			Date:       batch.Date,
			RecordedAt: recordedAt,
			Kind:       models.KindSnapshot,
		})
	}
	return out
}

// ReconcileGoods recomputes one snapshot per goods intake batch. The base
// remainder never drops below zero and the secondary remainder keeps the
// batch's original base/secondary ratio.
func ReconcileGoods(intake, consumption []models.Row, now time.Time) []models.GoodsBalance {
	usedBase := make(map[string]float64)
	for _, r := range consumption {
		s := models.GoodsSaleFromRow(r)
		usedBase[s.BatchID] += s.BaseQty
	}

	recordedAt := models.FormatDateTime(now)
	seen := make(map[string]bool)
	var out []models.GoodsBalance

	for _, r := range intake {
		batch := models.GoodsIntakeFromRow(r)
		if batch.BatchID == "" || seen[batch.BatchID] || !models.IsIntakeKind(batch.Kind) {
			continue
		}
		seen[batch.BatchID] = true

		remainingBase := math.Max(0, batch.BaseQty-usedBase[batch.BatchID])
		remainingSecondary := 0.0
		if batch.BaseQty > 0 {
			remainingSecondary = remainingBase / batch.BaseQty * batch.SecondaryQty
		}

		date := batch.Date
		if date == "" {
			date = recordedAt
		}

		out = append(out, models.GoodsBalance{
			BatchID:       batch.BatchID,
			GoodsID:       batch.GoodsID,
			Goods:         batch.Goods,
			GoodsType:     batch.GoodsType,
			SecondaryQty:  Round4(remainingSecondary),
			SecondaryUnit: batch.SecondaryUnit,
			BaseUnit:      batch.BaseUnit,
			BaseQty:       Round4(remainingBase),
			UnitCost:      batch.UnitCost,
			Value:         Round2(remainingBase * batch.UnitCost),
			SalePrice:     batch.SalePrice,
			Date:          date,
			RecordedAt:    recordedAt,
			Kind:          models.KindSnapshot,
		})
	}
	return out
}
