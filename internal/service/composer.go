package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"inventory-sync/internal/ledger"
	"inventory-sync/internal/models"
	"inventory-sync/internal/util"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Composer turns business operations into queue entries. Every operation is
// enqueued as one batch, so either all of its rows are queued or none are.
type Composer struct {
	queue    WriteQueue
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// NewComposer creates a new write composer
func NewComposer(queue WriteQueue) *Composer {
	return &Composer{
		queue:    queue,
		validate: newValidator(),
		now:      time.Now,
		logger:   util.ComponentLogger("composer"),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func (c *Composer) check(req any) error {
	if err := c.validate.Struct(req); err != nil {
		return fromValidator(err)
	}
	return nil
}

func (c *Composer) enqueue(ctx context.Context, op string, batch entries) error {
	if err := c.queue.EnqueueBatch(ctx, batch); err != nil {
		c.logger.Error("Failed to enqueue writes",
			zap.String("operation", op),
			zap.Int("rows", len(batch)),
			zap.Error(err))
		return fmt.Errorf("failed to enqueue %s: %w", op, err)
	}
	c.logger.Debug("Writes enqueued", zap.String("operation", op), zap.Int("rows", len(batch)))
	return nil
}

// dateOr returns the given business date, or the current time when empty.
func dateOr(date string, now time.Time) (string, error) {
	if date == "" {
		return models.FormatDateTime(now), nil
	}
	t, ok := models.ParseDateTime(date)
	if !ok {
		return "", newValidationError("date", "datetime")
	}
	return models.FormatDateTime(t), nil
}

// CreateProductRequest represents a request to add a product to the catalog
type CreateProductRequest struct {
	Name string `json:"name" validate:"required"`
	Unit string `json:"unit" validate:"required"`
}

// CreateProduct enqueues a new catalog product with a generated id
func (c *Composer) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Composer.CreateProduct")
	defer span.End()

	if err := c.check(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		ProductID: util.NewShortID(),
		Name:      req.Name,
		Unit:      req.Unit,
		Date:      models.FormatDateTime(c.now()),
	}

	var batch entries
	batch.add(models.CollectionProducts, product.ToRow())
	if err := c.enqueue(ctx, "product", batch); err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return product, nil
}

// CreateGoodsRequest represents a request to add a goods item to the catalog
type CreateGoodsRequest struct {
	Name string `json:"name" validate:"required"`
	Unit string `json:"unit" validate:"required"`
	Type string `json:"type"`
}

// CreateGoods enqueues a new catalog goods item with a generated id
func (c *Composer) CreateGoods(ctx context.Context, req *CreateGoodsRequest) (*models.Goods, error) {
	ctx, span := util.StartSpan(ctx, "Composer.CreateGoods")
	defer span.End()

	if err := c.check(req); err != nil {
		return nil, err
	}

	goods := &models.Goods{
		GoodsID: util.NewShortID(),
		Name:    req.Name,
		Unit:    req.Unit,
		Type:    req.Type,
		Date:    models.FormatDateTime(c.now()),
	}

	var batch entries
	batch.add(models.CollectionGoods, goods.ToRow())
	if err := c.enqueue(ctx, "goods", batch); err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return goods, nil
}

// CreateRecipeRequest represents a new recipe version for an output goods item.
// OutputQty is in the secondary unit, PrimaryQty the same output in the goods
// base unit.
type CreateRecipeRequest struct {
	GoodsID       string              `json:"goods_id" validate:"required"`
	Goods         string              `json:"goods"`
	GoodsUnit     string              `json:"goods_unit"`
	OutputQty     float64             `json:"output_qty" validate:"gt=0"`
	SecondaryUnit string              `json:"secondary_unit"`
	PrimaryQty    float64             `json:"primary_qty" validate:"gte=0"`
	Lines         []RecipeLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// RecipeLineRequest is one ingredient of a recipe
type RecipeLineRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Product   string  `json:"product"`
	Qty       float64 `json:"qty" validate:"gt=0"`
	Unit      string  `json:"unit"`
}

// CreateRecipe enqueues one row per ingredient sharing a new recipe id
func (c *Composer) CreateRecipe(ctx context.Context, req *CreateRecipeRequest) (string, error) {
	ctx, span := util.StartSpan(ctx, "Composer.CreateRecipe",
		attribute.String("goods_id", req.GoodsID))
	defer span.End()

	if err := c.check(req); err != nil {
		return "", err
	}

	recipeID := util.NewShortID()
	date := models.FormatDateTime(c.now())

	var batch entries
	for _, line := range req.Lines {
		batch.add(models.CollectionRecipes, models.RecipeLine{
			RecipeID:      recipeID,
			ProductID:     line.ProductID,
			Product:       line.Product,
			ProductQty:    line.Qty,
			ProductUnit:   line.Unit,
			GoodsID:       req.GoodsID,
			Goods:         req.Goods,
			GoodsQty:      req.OutputQty,
			GoodsUnit:     req.GoodsUnit,
			SecondaryUnit: req.SecondaryUnit,
			PrimaryQty:    req.PrimaryQty,
			Date:          date,
			Kind:          models.RecipeKindRecipe,
		}.ToRow())
	}

	if err := c.enqueue(ctx, "recipe", batch); err != nil {
		util.RecordError(span, err)
		return "", err
	}
	return recipeID, nil
}

// CreateProductIntakeRequest represents a product intake
type CreateProductIntakeRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Product   string  `json:"product"`
	Qty       float64 `json:"qty" validate:"gt=0"`
	Unit      string  `json:"unit"`
	Price     float64 `json:"price" validate:"gte=0"`
	Date      string  `json:"date"`
}

// CreateProductIntake enqueues the intake row and its opening balance row,
// both carrying the same new batch id
func (c *Composer) CreateProductIntake(ctx context.Context, req *CreateProductIntakeRequest) (*models.ProductIntake, error) {
	ctx, span := util.StartSpan(ctx, "Composer.CreateProductIntake",
		attribute.String("product_id", req.ProductID))
	defer span.End()

	if err := c.check(req); err != nil {
		return nil, err
	}

	now := c.now()
	date, err := dateOr(req.Date, now)
	if err != nil {
		return nil, err
	}

	intake := &models.ProductIntake{
		BatchID:    util.NewShortID(),
		ProductID:  req.ProductID,
		Product:    req.Product,
		Qty:        req.Qty,
		Unit:       req.Unit,
		Price:      req.Price,
		Sum:        ledger.Round2(req.Qty * req.Price),
		Date:       date,
		RecordedAt: models.FormatDateTime(now),
		Kind:       models.KindIntake,
	}

	balance := models.ProductBalance{
		BatchID:    intake.BatchID,
		ProductID:  intake.ProductID,
		Product:    intake.Product,
		PlannedQty: intake.Qty,
		ActualQty:  intake.Qty,
		Unit:       intake.Unit,
		Price:      intake.Price,
		Value:      intake.Sum,
		Date:       intake.Date,
		RecordedAt: intake.RecordedAt,
		Kind:       models.KindIntake,
	}

	var batch entries
	batch.add(models.CollectionProductIntake, intake.ToRow())
	batch.add(models.CollectionProductBalance, balance.ToRow())
	if err := c.enqueue(ctx, "product intake", batch); err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	c.logger.Info("Product intake queued",
		zap.String("batch_id", intake.BatchID),
		zap.String("product_id", intake.ProductID),
		zap.Float64("qty", intake.Qty))
	return intake, nil
}

// CreateGoodsIntakeBatchRequest represents several goods intakes submitted together
type CreateGoodsIntakeBatchRequest struct {
	Items []GoodsIntakeItem `json:"items" validate:"required,min=1,dive"`
}

// GoodsIntakeItem is one goods intake in the base and secondary units
type GoodsIntakeItem struct {
	GoodsID       string  `json:"goods_id" validate:"required"`
	Goods         string  `json:"goods"`
	GoodsType     string  `json:"goods_type"`
	SecondaryQty  float64 `json:"secondary_qty" validate:"gt=0"`
	SecondaryUnit string  `json:"secondary_unit"`
	BaseUnit      string  `json:"base_unit"`
	BaseQty       float64 `json:"base_qty" validate:"gt=0"`
	UnitCost      float64 `json:"unit_cost" validate:"gte=0"`
	SalePrice     float64 `json:"sale_price" validate:"gte=0"`
	Date          string  `json:"date"`
}

// CreateGoodsIntakeBatch gives every item its own batch id and enqueues an
// intake row plus an opening balance row per item
func (c *Composer) CreateGoodsIntakeBatch(ctx context.Context, req *CreateGoodsIntakeBatchRequest) ([]models.GoodsIntake, error) {
	ctx, span := util.StartSpan(ctx, "Composer.CreateGoodsIntakeBatch",
		attribute.Int("items", len(req.Items)))
	defer span.End()

	if err := c.check(req); err != nil {
		return nil, err
	}

	now := c.now()
	recordedAt := models.FormatDateTime(now)

	var batch entries
	intakes := make([]models.GoodsIntake, 0, len(req.Items))
	for i, item := range req.Items {
		date, err := dateOr(item.Date, now)
		if err != nil {
			return nil, newValidationError(fmt.Sprintf("items[%d].date", i), "datetime")
		}

		intake := models.GoodsIntake{
			BatchID:       util.NewShortID(),
			GoodsID:       item.GoodsID,
			Goods:         item.Goods,
			GoodsType:     item.GoodsType,
			SecondaryQty:  item.SecondaryQty,
			SecondaryUnit: item.SecondaryUnit,
			BaseUnit:      item.BaseUnit,
			BaseQty:       item.BaseQty,
			UnitCost:      item.UnitCost,
			TotalCost:     ledger.Round2(item.BaseQty * item.UnitCost),
			SalePrice:     item.SalePrice,
			Date:          date,
		}
		balance := models.GoodsBalance{
			BatchID:       intake.BatchID,
			GoodsID:       intake.GoodsID,
			Goods:         intake.Goods,
			GoodsType:     intake.GoodsType,
			SecondaryQty:  intake.SecondaryQty,
			SecondaryUnit: intake.SecondaryUnit,
			BaseUnit:      intake.BaseUnit,
			BaseQty:       intake.BaseQty,
			UnitCost:      intake.UnitCost,
			Value:         intake.TotalCost,
			SalePrice:     intake.SalePrice,
			Date:          date,
			RecordedAt:    recordedAt,
			Kind:          models.KindIntake,
		}

		batch.add(models.CollectionGoodsIntake, intake.ToRow())
		batch.add(models.CollectionGoodsBalance, balance.ToRow())
		intakes = append(intakes, intake)
	}

	if err := c.enqueue(ctx, "goods intake", batch); err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return intakes, nil
}

// ProductionWrite is a fully planned production run
type ProductionWrite struct {
	Consumptions []models.ProductConsumption
	Balances     []models.ProductBalance
	Output       models.GoodsIntake
}

// ProcessProduction enqueues the ingredient draws, their batch snapshots and
// the finished goods batch. Consumption rows share one consumption id; the
// finished goods intake and its balance row share one new batch id.
func (c *Composer) ProcessProduction(ctx context.Context, w *ProductionWrite) (*models.GoodsIntake, error) {
	ctx, span := util.StartSpan(ctx, "Composer.ProcessProduction",
		attribute.String("goods_id", w.Output.GoodsID))
	defer span.End()

	now := c.now()
	recordedAt := models.FormatDateTime(now)
	consumptionID := util.NewShortID()

	var batch entries
	for _, item := range w.Consumptions {
		item.ConsumptionID = consumptionID
		item.RecordedAt = recordedAt
		item.Operation = models.OperationProduction
		batch.add(models.CollectionProductConsumption, item.ToRow())
	}
	for _, b := range w.Balances {
		b.RecordedAt = recordedAt
		b.Kind = models.KindSnapshot
		batch.add(models.CollectionProductBalance, b.ToRow())
	}

	output := w.Output
	output.BatchID = util.NewShortID()
	output.GoodsType = models.GoodsTypeDish
	output.Operation = models.OperationPrepare
	output.RecordedAt = recordedAt
	if output.Date == "" {
		output.Date = recordedAt
	}
	batch.add(models.CollectionGoodsIntake, output.ToRow())
	batch.add(models.CollectionGoodsBalance, models.GoodsBalance{
		BatchID:       output.BatchID,
		GoodsID:       output.GoodsID,
		Goods:         output.Goods,
		GoodsType:     output.GoodsType,
		SecondaryQty:  output.SecondaryQty,
		SecondaryUnit: output.SecondaryUnit,
		BaseUnit:      output.BaseUnit,
		BaseQty:       output.BaseQty,
		UnitCost:      output.UnitCost,
		Value:         output.TotalCost,
		SalePrice:     output.SalePrice,
		Date:          output.Date,
		RecordedAt:    recordedAt,
		Kind:          models.KindIntake,
	}.ToRow())

	if err := c.enqueue(ctx, "production", batch); err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return &output, nil
}

// SaleWrite is a fully allocated sale
type SaleWrite struct {
	Sales    []models.GoodsSale
	Balances []models.GoodsBalance
}

// ProcessSale enqueues the sale rows and batch snapshots under one sale id
func (c *Composer) ProcessSale(ctx context.Context, w *SaleWrite) (string, error) {
	ctx, span := util.StartSpan(ctx, "Composer.ProcessSale",
		attribute.Int("batches", len(w.Sales)))
	defer span.End()

	recordedAt := models.FormatDateTime(c.now())
	saleID := util.NewShortID()

	var batch entries
	for _, s := range w.Sales {
		s.SaleID = saleID
		if s.Customer == "" {
			s.Customer = models.DefaultCustomer
		}
		batch.add(models.CollectionGoodsConsumption, s.ToRow())
	}
	for _, b := range w.Balances {
		b.RecordedAt = recordedAt
		b.Kind = models.KindSnapshot
		row := b.ToRow()
		row[models.FieldSaleID] = saleID
		batch.add(models.CollectionGoodsBalance, row)
	}

	if err := c.enqueue(ctx, "sale", batch); err != nil {
		util.RecordError(span, err)
		return "", err
	}
	return saleID, nil
}
