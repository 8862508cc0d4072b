package service

import (
	"context"
	"fmt"
	"time"

	"inventory-sync/internal/ledger"
	"inventory-sync/internal/models"
	"inventory-sync/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductionService plans and records production runs against the latest
// product batch balances
type ProductionService struct {
	reader   Reader
	composer *Composer
	now      func() time.Time
	logger   *zap.Logger
}

// NewProductionService creates a new production service
func NewProductionService(reader Reader, composer *Composer) *ProductionService {
	return &ProductionService{
		reader:   reader,
		composer: composer,
		now:      time.Now,
		logger:   util.ComponentLogger("production"),
	}
}

// ProductionRequest represents a request to produce an output goods item.
// ActualQty overrides the total actual quantity per product id. Lines sharing
// a product split the override by their planned share; ingredients without an
// override use the planned quantity.
type ProductionRequest struct {
	GoodsID   string             `json:"goods_id" validate:"required"`
	OutputQty float64            `json:"output_qty" validate:"gt=0"`
	Date      string             `json:"date"`
	ActualQty map[string]float64 `json:"actual_qty" validate:"dive,gte=0"`
}

// IngredientPlan is the FIFO plan of one recipe line
type IngredientPlan struct {
	ProductID  string      `json:"product_id"`
	Product    string      `json:"product"`
	Unit       string      `json:"unit"`
	PlannedQty float64     `json:"planned_qty"`
	ActualQty  float64     `json:"actual_qty"`
	Available  float64     `json:"available"`
	Plan       ledger.Plan `json:"plan"`
}

// ProductionPlan is the outcome of planning a run without writing anything
type ProductionPlan struct {
	RecipeID      string           `json:"recipe_id"`
	GoodsID       string           `json:"goods_id"`
	Goods         string           `json:"goods"`
	BaseUnit      string           `json:"base_unit"`
	SecondaryUnit string           `json:"secondary_unit"`
	OutputQty     float64          `json:"output_qty"`
	PrimaryQty    float64          `json:"primary_qty"`
	Date          string           `json:"date"`
	Ingredients   []IngredientPlan `json:"ingredients"`
	TotalCost     float64          `json:"total_cost"`
	UnitCost      float64          `json:"unit_cost"`
	IsPossible    bool             `json:"is_possible"`
}

// ProductionResult is a confirmed run
type ProductionResult struct {
	Plan   *ProductionPlan     `json:"plan"`
	Output *models.GoodsIntake `json:"output"`
}

type productionSnapshot struct {
	recipes  []models.Row
	balances []models.Row
	goods    []models.Row
}

func (s *ProductionService) read(ctx context.Context) (*productionSnapshot, error) {
	var snap productionSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.recipes = s.reader.BulkRead(gctx, models.CollectionRecipes)
		return nil
	})
	g.Go(func() error {
		snap.balances = s.reader.BulkRead(gctx, models.CollectionProductBalance)
		return nil
	})
	g.Go(func() error {
		snap.goods = s.reader.BulkRead(gctx, models.CollectionGoods)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Preview plans a run from freshly read ledgers. A plan that is not possible
// is returned without error so callers can show the per-ingredient shortages.
func (s *ProductionService) Preview(ctx context.Context, req *ProductionRequest) (*ProductionPlan, error) {
	ctx, span := util.StartSpan(ctx, "ProductionService.Preview",
		attribute.String("goods_id", req.GoodsID))
	defer span.End()

	if err := s.composer.check(req); err != nil {
		return nil, err
	}
	snap, err := s.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledgers: %w", err)
	}
	return s.plan(req, snap)
}

func (s *ProductionService) plan(req *ProductionRequest, snap *productionSnapshot) (*ProductionPlan, error) {
	recipe, ok := ledger.LatestRecipe(snap.recipes, req.GoodsID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, req.GoodsID)
	}

	goods, found := findGoods(snap.goods, req.GoodsID)
	if !found {
		return nil, fmt.Errorf("%w: goods %s", ErrItemNotFound, req.GoodsID)
	}

	date, err := dateOr(req.Date, s.now())
	if err != nil {
		return nil, err
	}

	name := goods.Name
	if name == "" {
		name = recipe.Goods
	}

	plan := &ProductionPlan{
		RecipeID:      recipe.RecipeID,
		GoodsID:       req.GoodsID,
		Goods:         name,
		BaseUnit:      goods.Unit,
		SecondaryUnit: recipe.SecondaryUnit,
		OutputQty:     req.OutputQty,
		PrimaryQty:    recipe.PrimaryOutput(req.OutputQty),
		Date:          date,
		IsPossible:    true,
	}

	// Ingredients drawing on the same product plan against what earlier
	// lines left behind.
	working := make(map[string][]models.ProductBalance)

	planned := make([]float64, len(recipe.Lines))
	plannedByProduct := make(map[string]float64)
	linesByProduct := make(map[string]int)
	assigned := make(map[string]float64)
	for i, line := range recipe.Lines {
		planned[i] = ledger.Round3(recipe.PlannedQty(line, req.OutputQty))
		plannedByProduct[line.ProductID] += planned[i]
		linesByProduct[line.ProductID]++
	}

	for i, line := range recipe.Lines {
		batches, seen := working[line.ProductID]
		if !seen {
			batches = ledger.OpenProductBatches(snap.balances, line.ProductID)
		}

		actual := planned[i]
		if override, ok := req.ActualQty[line.ProductID]; ok {
			linesByProduct[line.ProductID]--
			if linesByProduct[line.ProductID] == 0 {
				// The last line takes what is left so the shares add up.
				actual = ledger.Round4(override - assigned[line.ProductID])
			} else {
				actual = shareOf(override, planned[i], plannedByProduct[line.ProductID])
			}
			assigned[line.ProductID] += actual
		}

		available := 0.0
		for _, b := range batches {
			available += b.ActualQty
		}

		p := ledger.PlanConsumption(batches, actual, planned[i])
		plan.Ingredients = append(plan.Ingredients, IngredientPlan{
			ProductID:  line.ProductID,
			Product:    line.Product,
			Unit:       line.ProductUnit,
			PlannedQty: planned[i],
			ActualQty:  actual,
			Available:  ledger.Round4(available),
			Plan:       p,
		})
		plan.TotalCost += p.TotalCost
		if !p.IsPossible {
			plan.IsPossible = false
		}

		working[line.ProductID] = drawDown(batches, p)
	}

	plan.TotalCost = ledger.Round2(plan.TotalCost)
	primary := plan.PrimaryQty
	if primary == 0 {
		primary = 1
	}
	plan.UnitCost = ledger.Round2(plan.TotalCost / primary)
	return plan, nil
}

// shareOf is one line's part of a product-wide actual quantity.
func shareOf(override, planned, totalPlanned float64) float64 {
	if totalPlanned <= 0 {
		return 0
	}
	return ledger.Round4(override * planned / totalPlanned)
}

// drawDown applies a plan's takes to a working copy of the batches and keeps
// the ones still open.
func drawDown(batches []models.ProductBalance, p ledger.Plan) []models.ProductBalance {
	takes := make(map[string]ledger.ConsumptionItem, len(p.Items))
	for _, item := range p.Items {
		takes[item.BatchID] = item
	}

	var out []models.ProductBalance
	for _, b := range batches {
		if item, ok := takes[b.BatchID]; ok {
			b.ActualQty = item.RemainingActualAfter()
			b.PlannedQty = item.RemainingPlannedAfter()
		}
		if b.ActualQty > models.Epsilon {
			out = append(out, b)
		}
	}
	return out
}

func findGoods(rows []models.Row, goodsID string) (models.Goods, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		g := models.GoodsFromRow(rows[i])
		if g.GoodsID == goodsID {
			return g, true
		}
	}
	return models.Goods{}, false
}

// Confirm plans the run and, if every ingredient is covered, enqueues the
// consumption rows, the batch snapshots and the finished goods batch. On any
// shortage nothing is written.
func (s *ProductionService) Confirm(ctx context.Context, req *ProductionRequest) (*ProductionResult, error) {
	ctx, span := util.StartSpan(ctx, "ProductionService.Confirm",
		attribute.String("goods_id", req.GoodsID),
		attribute.Float64("output_qty", req.OutputQty))
	defer span.End()

	plan, err := s.Preview(ctx, req)
	if err != nil {
		util.ProductionRunsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	for _, ing := range plan.Ingredients {
		if ing.Plan.IsPossible {
			continue
		}
		util.ProductionRunsTotal.WithLabelValues("shortage").Inc()
		util.StockShortagesTotal.WithLabelValues("production").Inc()
		s.logger.Warn("Production abandoned on shortage",
			zap.String("goods_id", req.GoodsID),
			zap.String("product_id", ing.ProductID),
			zap.Float64("shortage", ing.Plan.Shortage))
		return nil, &ShortageError{
			ItemID:    ing.ProductID,
			ItemName:  ing.Product,
			Requested: ing.ActualQty,
			Available: ing.Available,
			Shortage:  ledger.Round4(ing.Plan.Shortage),
		}
	}

	output, err := s.composer.ProcessProduction(ctx, buildProductionWrite(plan))
	if err != nil {
		util.ProductionRunsTotal.WithLabelValues("failed").Inc()
		util.RecordError(span, err)
		return nil, err
	}

	util.ProductionRunsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Production queued",
		zap.String("goods_id", plan.GoodsID),
		zap.String("batch_id", output.BatchID),
		zap.Float64("output_qty", plan.OutputQty),
		zap.Float64("total_cost", plan.TotalCost))
	return &ProductionResult{Plan: plan, Output: output}, nil
}

func buildProductionWrite(plan *ProductionPlan) *ProductionWrite {
	w := &ProductionWrite{}
	for _, ing := range plan.Ingredients {
		for _, item := range ing.Plan.Items {
			w.Consumptions = append(w.Consumptions, models.ProductConsumption{
				BatchID:       item.BatchID,
				ProductID:     ing.ProductID,
				Product:       ing.Product,
				PlannedQty:    ledger.Round4(item.TakePlanned),
				ActualQty:     ledger.Round4(item.TakeActual),
				Unit:          ing.Unit,
				GoodsID:       plan.GoodsID,
				DishName:      plan.Goods,
				DishQty:       plan.OutputQty,
				SecondaryUnit: plan.SecondaryUnit,
				UnitPrice:     item.UnitPrice,
				Cost:          ledger.Round2(item.Cost),
				Date:          plan.Date,
			})

			remainingActual := item.RemainingActualAfter()
			w.Balances = append(w.Balances, models.ProductBalance{
				BatchID:    item.BatchID,
				ProductID:  ing.ProductID,
				Product:    ing.Product,
				PlannedQty: ledger.Round4(item.RemainingPlannedAfter()),
				ActualQty:  ledger.Round4(remainingActual),
				Unit:       ing.Unit,
				Price:      item.UnitPrice,
				Value:      ledger.Round2(remainingActual * item.UnitPrice),
				IntakeDate: item.BatchDate,
				Date:       item.BatchDate,
			})
		}
	}

	w.Output = models.GoodsIntake{
		GoodsID:       plan.GoodsID,
		Goods:         plan.Goods,
		SecondaryQty:  plan.OutputQty,
		SecondaryUnit: plan.SecondaryUnit,
		BaseUnit:      plan.BaseUnit,
		BaseQty:       plan.PrimaryQty,
		UnitCost:      plan.UnitCost,
		TotalCost:     plan.TotalCost,
		Date:          plan.Date,
	}
	return w
}
