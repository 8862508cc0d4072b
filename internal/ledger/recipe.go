package ledger

import (
	"time"

	"inventory-sync/internal/models"
)

// Recipe is one version of the ingredient list for an output goods item.
// OutputQty is the output the lines are written for, in the secondary unit;
// PrimaryQty is the same output in the goods base unit.
type Recipe struct {
	RecipeID      string              `json:"recipe_id"`
	GoodsID       string              `json:"goods_id"`
	Goods         string              `json:"goods"`
	OutputQty     float64             `json:"output_qty"`
	PrimaryQty    float64             `json:"primary_qty"`
	SecondaryUnit string              `json:"secondary_unit"`
	Date          time.Time           `json:"date"`
	Lines         []models.RecipeLine `json:"lines"`
}

// LatestRecipe picks the newest recipe version for a goods item. A version's
// time is the latest date among its lines; on equal times the version first
// read later wins.
func LatestRecipe(rows []models.Row, goodsID string) (Recipe, bool) {
	var order []string
	versions := make(map[string]*Recipe)

	for _, r := range rows {
		line := models.RecipeLineFromRow(r)
		if line.GoodsID != goodsID || line.RecipeID == "" {
			continue
		}
		v, ok := versions[line.RecipeID]
		if !ok {
			v = &Recipe{
				RecipeID:      line.RecipeID,
				GoodsID:       line.GoodsID,
				Goods:         line.Goods,
				OutputQty:     line.GoodsQty,
				PrimaryQty:    line.PrimaryQty,
				SecondaryUnit: line.SecondaryUnit,
			}
			versions[line.RecipeID] = v
			order = append(order, line.RecipeID)
		}
		if t, ok := models.ParseDateTime(line.Date); ok && t.After(v.Date) {
			v.Date = t
		}
		v.Lines = append(v.Lines, line)
	}

	var best *Recipe
	for _, id := range order {
		v := versions[id]
		if best == nil || !v.Date.Before(best.Date) {
			best = v
		}
	}
	if best == nil {
		return Recipe{}, false
	}
	return *best, true
}

func (r Recipe) outputQty() float64 {
	if r.OutputQty == 0 {
		return 1
	}
	return r.OutputQty
}

// PlannedQty scales one line to the requested output quantity.
func (r Recipe) PlannedQty(line models.RecipeLine, outputQty float64) float64 {
	if outputQty <= 0 {
		return 0
	}
	return line.ProductQty / r.outputQty() * outputQty
}

// PrimaryOutput converts an output quantity to the goods base unit.
func (r Recipe) PrimaryOutput(outputQty float64) float64 {
	if outputQty <= 0 {
		return 0
	}
	primary := r.PrimaryQty
	if primary == 0 {
		primary = 1
	}
	return Round2(outputQty / r.outputQty() * primary)
}
