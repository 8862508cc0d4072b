package ledger

import (
	"math"

	"inventory-sync/internal/models"
)

// ConsumptionItem is the draw from one batch
type ConsumptionItem struct {
	BatchID                string  `json:"batch_id"`
	TakeActual             float64 `json:"take_actual"`
	TakePlanned            float64 `json:"take_planned"`
	UnitPrice              float64 `json:"unit_price"`
	Cost                   float64 `json:"cost"`
	RemainingActualBefore  float64 `json:"remaining_actual_before"`
	RemainingPlannedBefore float64 `json:"remaining_planned_before"`
	BatchDate              string  `json:"batch_date"`
}

// RemainingActualAfter is the actual balance left in the batch
func (c ConsumptionItem) RemainingActualAfter() float64 {
	return c.RemainingActualBefore - c.TakeActual
}

// RemainingPlannedAfter is the planned balance left in the batch
func (c ConsumptionItem) RemainingPlannedAfter() float64 {
	return c.RemainingPlannedBefore - c.TakePlanned
}

// Plan is the FIFO allocation of one ingredient
type Plan struct {
	Items      []ConsumptionItem `json:"items"`
	IsPossible bool              `json:"is_possible"`
	Shortage   float64           `json:"shortage"`
	TotalCost  float64           `json:"total_cost"`
}

// PlanConsumption walks batches oldest first and draws the actual and
// planned needs independently. The plan is possible only when the actual
// need is covered; the planned need may stay partly uncovered.
func PlanConsumption(batches []models.ProductBalance, actualNeeded, plannedNeeded float64) Plan {
	var plan Plan
	needActual := actualNeeded
	needPlanned := plannedNeeded

	for _, b := range batches {
		if needActual <= models.Epsilon && needPlanned <= models.Epsilon {
			break
		}

		// Float leftovers below Epsilon count as covered.
		takeActual, takePlanned := 0.0, 0.0
		if needActual > models.Epsilon {
			takeActual = math.Min(math.Max(0, b.ActualQty), needActual)
		}
		if needPlanned > models.Epsilon {
			takePlanned = math.Min(math.Max(0, b.PlannedQty), needPlanned)
		}

		if takeActual > 0 || takePlanned > 0 {
			item := ConsumptionItem{
				BatchID:                b.BatchID,
				TakeActual:             takeActual,
				TakePlanned:            takePlanned,
				UnitPrice:              b.Price,
				Cost:                   takeActual * b.Price,
				RemainingActualBefore:  b.ActualQty,
				RemainingPlannedBefore: b.PlannedQty,
				BatchDate:              b.Date,
			}
			plan.Items = append(plan.Items, item)
			plan.TotalCost += item.Cost
		}

		needActual -= takeActual
		needPlanned -= takePlanned
	}

	// Items stay on a shortage so a preview can show what is covered.
	plan.IsPossible = needActual <= models.Epsilon
	if !plan.IsPossible {
		plan.Shortage = needActual
	}
	return plan
}

// SaleItem is the draw of a sale from one goods batch
type SaleItem struct {
	Batch              models.GoodsBalance `json:"batch"`
	TakeBase           float64             `json:"take_base"`
	TakeSecondary      float64             `json:"take_secondary"`
	RemainingBase      float64             `json:"remaining_base"`
	RemainingSecondary float64             `json:"remaining_secondary"`
}

// SaleAllocation is the FIFO allocation of one sale
type SaleAllocation struct {
	Items      []SaleItem `json:"items"`
	Available  float64    `json:"available"`
	IsPossible bool       `json:"is_possible"`
	Shortage   float64    `json:"shortage"`
}

// AllocateSale draws a base-unit quantity from goods batches oldest first.
// The secondary quantity follows each batch's own base/secondary ratio.
// Nothing is allocated when the batches cannot cover the request.
func AllocateSale(batches []models.GoodsBalance, baseQty float64) SaleAllocation {
	var alloc SaleAllocation
	for _, b := range batches {
		alloc.Available += b.BaseQty
	}

	if baseQty > alloc.Available+models.Epsilon {
		alloc.Shortage = baseQty - alloc.Available
		return alloc
	}

	need := baseQty
	for _, b := range batches {
		if need <= models.Epsilon {
			break
		}
		takeBase := math.Min(b.BaseQty, need)
		takeSecondary := 0.0
		if b.BaseQty > 0 {
			takeSecondary = takeBase / b.BaseQty * b.SecondaryQty
		}
		alloc.Items = append(alloc.Items, SaleItem{
			Batch:              b,
			TakeBase:           takeBase,
			TakeSecondary:      takeSecondary,
			RemainingBase:      b.BaseQty - takeBase,
			RemainingSecondary: b.SecondaryQty - takeSecondary,
		})
		need -= takeBase
	}

	alloc.IsPossible = true
	return alloc
}
