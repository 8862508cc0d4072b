package models

import "time"

// Product is a catalog item consumed by recipes.
type Product struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Date      string `json:"date"`
}

func (p Product) ToRow() Row {
	return Row{
		FieldProductID: p.ProductID,
		FieldProduct:   p.Name,
		FieldUnit:      p.Unit,
		FieldDate:      p.Date,
	}
}

func ProductFromRow(r Row) Product {
	return Product{
		ProductID: r.Str(FieldProductID),
		Name:      r.Str(FieldProduct),
		Unit:      r.Str(FieldUnit),
		Date:      r.Str(FieldDate),
	}
}

// Goods is a sellable catalog item. Unit is its base unit.
type Goods struct {
	GoodsID string `json:"goods_id"`
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Type    string `json:"type"`
	Date    string `json:"date"`
}

func (g Goods) ToRow() Row {
	return Row{
		FieldGoodsID:   g.GoodsID,
		FieldGoods:     g.Name,
		FieldUnit:      g.Unit,
		FieldGoodsType: g.Type,
		FieldDate:      g.Date,
	}
}

func GoodsFromRow(r Row) Goods {
	return Goods{
		GoodsID: r.Str(FieldGoodsID),
		Name:    r.Str(FieldGoods),
		Unit:    r.Str(FieldUnit),
		Type:    r.Str(FieldGoodsType),
		Date:    r.Str(FieldDate),
	}
}

// ProductIntake is one immutable intake batch of a product.
type ProductIntake struct {
	BatchID    string  `json:"batch_id"`
	ProductID  string  `json:"product_id"`
	Product    string  `json:"product"`
	Qty        float64 `json:"qty"`
	Unit       string  `json:"unit"`
	Price      float64 `json:"price"`
	Sum        float64 `json:"sum"`
	Date       string  `json:"date"`
	RecordedAt string  `json:"recorded_at"`
	Kind       string  `json:"kind"`
}

func (p ProductIntake) ToRow() Row {
	return Row{
		FieldBatchID:    p.BatchID,
		FieldProductID:  p.ProductID,
		FieldProduct:    p.Product,
		FieldQty:        p.Qty,
		FieldUnit:       p.Unit,
		FieldPrice:      p.Price,
		FieldSum:        p.Sum,
		FieldDate:       p.Date,
		FieldRecordedAt: p.RecordedAt,
		FieldBatchKind:  p.Kind,
	}
}

func ProductIntakeFromRow(r Row) ProductIntake {
	return ProductIntake{
		BatchID:    r.Str(FieldBatchID),
		ProductID:  r.Str(FieldProductID),
		Product:    r.Str(FieldProduct),
		Qty:        r.Num(FieldQty),
		Unit:       r.Str(FieldUnit),
		Price:      r.Num(FieldPrice),
		Sum:        r.Num(FieldSum),
		Date:       r.Str(FieldDate),
		RecordedAt: r.Str(FieldRecordedAt),
		Kind:       r.Str(FieldBatchKind),
	}
}

// ProductConsumption draws planned and actual quantities from one batch.
type ProductConsumption struct {
	ConsumptionID string  `json:"consumption_id"`
	BatchID       string  `json:"batch_id"`
	ProductID     string  `json:"product_id"`
	Product       string  `json:"product"`
	PlannedQty    float64 `json:"planned_qty"`
	ActualQty     float64 `json:"actual_qty"`
	Unit          string  `json:"unit"`
	GoodsID       string  `json:"goods_id"`
	DishName      string  `json:"dish_name"`
	DishQty       float64 `json:"dish_qty"`
	SecondaryUnit string  `json:"secondary_unit"`
	UnitPrice     float64 `json:"unit_price"`
	Cost          float64 `json:"cost"`
	Date          string  `json:"date"`
	RecordedAt    string  `json:"recorded_at"`
	Operation     string  `json:"operation"`
}

func (c ProductConsumption) ToRow() Row {
	return Row{
		FieldConsumptionID: c.ConsumptionID,
		FieldBatchID:       c.BatchID,
		FieldProductID:     c.ProductID,
		FieldProduct:       c.Product,
		FieldQty:           c.PlannedQty,
		FieldActualQty:     c.ActualQty,
		FieldUnit:          c.Unit,
		FieldGoodsID:       c.GoodsID,
		FieldDishName:      c.DishName,
		FieldDishQty:       c.DishQty,
		FieldSecondaryUnit: c.SecondaryUnit,
		FieldProductPrice:  c.UnitPrice,
		FieldProductSum:    c.Cost,
		FieldDate:          c.Date,
		FieldRecordedAt:    c.RecordedAt,
		FieldOperation:     c.Operation,
	}
}

// ProductConsumptionFromRow reads a consumption row. Rows written before the
// actual column existed fall back to the planned quantity.
func ProductConsumptionFromRow(r Row) ProductConsumption {
	return ProductConsumption{
		ConsumptionID: r.Str(FieldConsumptionID),
		BatchID:       r.Str(FieldBatchID),
		ProductID:     r.Str(FieldProductID),
		Product:       r.Str(FieldProduct),
		PlannedQty:    r.Num(FieldQty),
		ActualQty:     r.NumOr(FieldActualQty, FieldQty),
		Unit:          r.Str(FieldUnit),
		GoodsID:       r.Str(FieldGoodsID),
		DishName:      r.Str(FieldDishName),
		DishQty:       r.Num(FieldDishQty),
		SecondaryUnit: r.Str(FieldSecondaryUnit),
		UnitPrice:     r.Num(FieldProductPrice),
		Cost:          r.Num(FieldProductSum),
		Date:          r.Str(FieldDate),
		RecordedAt:    r.Str(FieldRecordedAt),
		Operation:     r.Str(FieldOperation),
	}
}

// ProductBalance is a materialized remainder snapshot of one product batch.
type ProductBalance struct {
	BatchID    string  `json:"batch_id"`
	ProductID  string  `json:"product_id"`
	Product    string  `json:"product"`
	PlannedQty float64 `json:"planned_qty"`
	ActualQty  float64 `json:"actual_qty"`
	Unit       string  `json:"unit"`
	Price      float64 `json:"price"`
	Value      float64 `json:"value"`
	IntakeDate string  `json:"intake_date"`
	Date       string  `json:"date"`
	RecordedAt string  `json:"recorded_at"`
	Kind       string  `json:"kind"`
}

func (b ProductBalance) ToRow() Row {
	row := Row{
		FieldBatchID:    b.BatchID,
		FieldProductID:  b.ProductID,
		FieldProduct:    b.Product,
		FieldQty:        b.PlannedQty,
		FieldActualQty:  b.ActualQty,
		FieldUnit:       b.Unit,
		FieldPrice:      b.Price,
		FieldSum:        b.Value,
		FieldDate:       b.Date,
		FieldRecordedAt: b.RecordedAt,
		FieldBatchKind:  b.Kind,
	}
	if b.IntakeDate != "" {
		row[FieldBatchDate] = b.IntakeDate
	}
	return row
}

func ProductBalanceFromRow(r Row) ProductBalance {
	return ProductBalance{
		BatchID:    r.Str(FieldBatchID),
		ProductID:  r.Str(FieldProductID),
		Product:    r.Str(FieldProduct),
		PlannedQty: r.Num(FieldQty),
		ActualQty:  r.NumOr(FieldActualQty, FieldQty),
		Unit:       r.Str(FieldUnit),
		Price:      r.Num(FieldPrice),
		Value:      r.Num(FieldSum),
		IntakeDate: r.Str(FieldBatchDate),
		Date:       r.Str(FieldDate),
		RecordedAt: r.Str(FieldRecordedAt),
		Kind:       r.Str(FieldBatchKind),
	}
}

// Timestamp is the moment the snapshot was taken: the record time, or the
// business date when the record time is missing.
func (b ProductBalance) Timestamp() time.Time {
	return snapshotTime(b.RecordedAt, b.Date)
}

// BatchTime is the batch's business date used for FIFO ordering.
func (b ProductBalance) BatchTime() time.Time {
	t, _ := ParseDateTime(b.Date)
	return t
}

// GoodsIntake is one intake batch of goods in a two-unit model: the base unit
// and a secondary reporting unit.
type GoodsIntake struct {
	BatchID       string  `json:"batch_id"`
	GoodsID       string  `json:"goods_id"`
	Goods         string  `json:"goods"`
	GoodsType     string  `json:"goods_type"`
	SecondaryQty  float64 `json:"secondary_qty"`
	SecondaryUnit string  `json:"secondary_unit"`
	BaseUnit      string  `json:"base_unit"`
	BaseQty       float64 `json:"base_qty"`
	UnitCost      float64 `json:"unit_cost"`
	TotalCost     float64 `json:"total_cost"`
	SalePrice     float64 `json:"sale_price"`
	Date          string  `json:"date"`
	RecordedAt    string  `json:"recorded_at"`
	Operation     string  `json:"operation"`
	Kind          string  `json:"kind"`
}

func (g GoodsIntake) ToRow() Row {
	row := Row{
		FieldBatchID:     g.BatchID,
		FieldGoodsID:     g.GoodsID,
		FieldGoods:       g.Goods,
		FieldGoodsType:   g.GoodsType,
		FieldQty:         g.SecondaryQty,
		FieldUnit:        g.SecondaryUnit,
		FieldBaseUnit:    g.BaseUnit,
		FieldBaseQty:     g.BaseQty,
		FieldIntakePrice: g.UnitCost,
		FieldIntakeSum:   g.TotalCost,
		FieldSalePrice:   g.SalePrice,
		FieldBatchDate:   g.Date,
	}
	if g.RecordedAt != "" {
		row[FieldRecordedAt] = g.RecordedAt
	}
	if g.Operation != "" {
		row[FieldOperation] = g.Operation
		row[FieldDate] = g.Date
	}
	if g.Kind != "" {
		row[FieldBatchKind] = g.Kind
	}
	return row
}

func GoodsIntakeFromRow(r Row) GoodsIntake {
	date := r.Str(FieldBatchDate)
	if date == "" {
		date = r.Str(FieldDate)
	}
	return GoodsIntake{
		BatchID:       r.Str(FieldBatchID),
		GoodsID:       r.Str(FieldGoodsID),
		Goods:         r.Str(FieldGoods),
		GoodsType:     r.Str(FieldGoodsType),
		SecondaryQty:  r.Num(FieldQty),
		SecondaryUnit: r.Str(FieldUnit),
		BaseUnit:      r.Str(FieldBaseUnit),
		BaseQty:       r.Num(FieldBaseQty),
		UnitCost:      r.Num(FieldIntakePrice),
		TotalCost:     r.Num(FieldIntakeSum),
		SalePrice:     r.Num(FieldSalePrice),
		Date:          date,
		RecordedAt:    r.Str(FieldRecordedAt),
		Operation:     r.Str(FieldOperation),
		Kind:          r.Str(FieldBatchKind),
	}
}

// GoodsBalance is a materialized remainder snapshot of one goods batch.
type GoodsBalance struct {
	BatchID       string  `json:"batch_id"`
	GoodsID       string  `json:"goods_id"`
	Goods         string  `json:"goods"`
	GoodsType     string  `json:"goods_type"`
	SecondaryQty  float64 `json:"secondary_qty"`
	SecondaryUnit string  `json:"secondary_unit"`
	BaseUnit      string  `json:"base_unit"`
	BaseQty       float64 `json:"base_qty"`
	UnitCost      float64 `json:"unit_cost"`
	Value         float64 `json:"value"`
	SalePrice     float64 `json:"sale_price"`
	Date          string  `json:"date"`
	RecordedAt    string  `json:"recorded_at"`
	Kind          string  `json:"kind"`
}

func (b GoodsBalance) ToRow() Row {
	return Row{
		FieldBatchID:       b.BatchID,
		FieldGoodsID:       b.GoodsID,
		FieldGoods:         b.Goods,
		FieldGoodsType:     b.GoodsType,
		FieldRemainingQty:  b.SecondaryQty,
		FieldUnit:          b.SecondaryUnit,
		FieldBaseUnit:      b.BaseUnit,
		FieldBaseRemaining: b.BaseQty,
		FieldIntakePrice:   b.UnitCost,
		FieldRemainingSum:  b.Value,
		FieldSalePrice:     b.SalePrice,
		FieldDate:          b.Date,
		FieldRecordedAt:    b.RecordedAt,
		FieldBatchKind:     b.Kind,
	}
}

func GoodsBalanceFromRow(r Row) GoodsBalance {
	return GoodsBalance{
		BatchID:       r.Str(FieldBatchID),
		GoodsID:       r.Str(FieldGoodsID),
		Goods:         r.Str(FieldGoods),
		GoodsType:     r.Str(FieldGoodsType),
		SecondaryQty:  r.Num(FieldRemainingQty),
		SecondaryUnit: r.Str(FieldUnit),
		BaseUnit:      r.Str(FieldBaseUnit),
		BaseQty:       r.Num(FieldBaseRemaining),
		UnitCost:      r.Num(FieldIntakePrice),
		Value:         r.Num(FieldRemainingSum),
		SalePrice:     r.Num(FieldSalePrice),
		Date:          r.Str(FieldDate),
		RecordedAt:    r.Str(FieldRecordedAt),
		Kind:          r.Str(FieldBatchKind),
	}
}

func (b GoodsBalance) Timestamp() time.Time {
	return snapshotTime(b.RecordedAt, b.Date)
}

func (b GoodsBalance) BatchTime() time.Time {
	t, _ := ParseDateTime(b.Date)
	return t
}

// GoodsSale is one sale ledger line drawn from one goods batch. BaseQty is
// stored under the base-unit column, the quantity the goods pass subtracts.
type GoodsSale struct {
	SaleID        string  `json:"sale_id"`
	BatchID       string  `json:"batch_id"`
	GoodsID       string  `json:"goods_id"`
	Goods         string  `json:"goods"`
	GoodsType     string  `json:"goods_type"`
	SecondaryQty  float64 `json:"secondary_qty"`
	SecondaryUnit string  `json:"secondary_unit"`
	BaseUnit      string  `json:"base_unit"`
	BaseQty       float64 `json:"base_qty"`
	UnitCost      float64 `json:"unit_cost"`
	SalePrice     float64 `json:"sale_price"`
	SaleAmount    float64 `json:"sale_amount"`
	SaleDate      string  `json:"sale_date"`
	Customer      string  `json:"customer"`
}

func (s GoodsSale) ToRow() Row {
	return Row{
		FieldSaleID:        s.SaleID,
		FieldBatchID:       s.BatchID,
		FieldGoodsID:       s.GoodsID,
		FieldGoods:         s.Goods,
		FieldGoodsType:     s.GoodsType,
		FieldQty:           s.SecondaryQty,
		FieldUnit:          s.SecondaryUnit,
		FieldBaseUnit:      s.BaseUnit,
		FieldBaseRemaining: s.BaseQty,
		FieldIntakePrice:   s.UnitCost,
		FieldSalePrice:     s.SalePrice,
		FieldSaleAmount:    s.SaleAmount,
		FieldSaleDate:      s.SaleDate,
		FieldCustomer:      s.Customer,
	}
}

func GoodsSaleFromRow(r Row) GoodsSale {
	return GoodsSale{
		SaleID:        r.Str(FieldSaleID),
		BatchID:       r.Str(FieldBatchID),
		GoodsID:       r.Str(FieldGoodsID),
		Goods:         r.Str(FieldGoods),
		GoodsType:     r.Str(FieldGoodsType),
		SecondaryQty:  r.Num(FieldQty),
		SecondaryUnit: r.Str(FieldUnit),
		BaseUnit:      r.Str(FieldBaseUnit),
		BaseQty:       r.Num(FieldBaseRemaining),
		UnitCost:      r.Num(FieldIntakePrice),
		SalePrice:     r.Num(FieldSalePrice),
		SaleAmount:    r.Num(FieldSaleAmount),
		SaleDate:      r.Str(FieldSaleDate),
		Customer:      r.Str(FieldCustomer),
	}
}

// RecipeLine is one ingredient line of a recipe version. GoodsQty is the
// output quantity in the secondary unit, PrimaryQty the same output in the
// goods base unit.
type RecipeLine struct {
	RecipeID      string  `json:"recipe_id"`
	ProductID     string  `json:"product_id"`
	Product       string  `json:"product"`
	ProductQty    float64 `json:"product_qty"`
	ProductUnit   string  `json:"product_unit"`
	GoodsID       string  `json:"goods_id"`
	Goods         string  `json:"goods"`
	GoodsQty      float64 `json:"goods_qty"`
	GoodsUnit     string  `json:"goods_unit"`
	SecondaryUnit string  `json:"secondary_unit"`
	PrimaryQty    float64 `json:"primary_qty"`
	Date          string  `json:"date"`
	Kind          string  `json:"kind"`
}

func (l RecipeLine) ToRow() Row {
	return Row{
		FieldRecipeID:      l.RecipeID,
		FieldProductID:     l.ProductID,
		FieldProduct:       l.Product,
		FieldProductQty:    l.ProductQty,
		FieldProductUnit:   l.ProductUnit,
		FieldGoodsID:       l.GoodsID,
		FieldGoods:         l.Goods,
		FieldGoodsQty:      l.GoodsQty,
		FieldGoodsUnit:     l.GoodsUnit,
		FieldSecondaryUnit: l.SecondaryUnit,
		FieldPrimaryQty:    l.PrimaryQty,
		FieldRecipeDate:    l.Date,
		FieldRecipeKind:    l.Kind,
	}
}

func RecipeLineFromRow(r Row) RecipeLine {
	return RecipeLine{
		RecipeID:      r.Str(FieldRecipeID),
		ProductID:     r.Str(FieldProductID),
		Product:       r.Str(FieldProduct),
		ProductQty:    r.Num(FieldProductQty),
		ProductUnit:   r.Str(FieldProductUnit),
		GoodsID:       r.Str(FieldGoodsID),
		Goods:         r.Str(FieldGoods),
		GoodsQty:      r.Num(FieldGoodsQty),
		GoodsUnit:     r.Str(FieldGoodsUnit),
		SecondaryUnit: r.Str(FieldSecondaryUnit),
		PrimaryQty:    r.Num(FieldPrimaryQty),
		Date:          r.Str(FieldRecipeDate),
		Kind:          r.Str(FieldRecipeKind),
	}
}

func snapshotTime(recordedAt, date string) time.Time {
	if t, ok := ParseDateTime(recordedAt); ok {
		return t
	}
	t, _ := ParseDateTime(date)
	return t
}
