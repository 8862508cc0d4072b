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
)

// SalesService allocates sales over goods batches oldest first
type SalesService struct {
	reader   Reader
	composer *Composer
	now      func() time.Time
	logger   *zap.Logger
}

// NewSalesService creates a new sales service
func NewSalesService(reader Reader, composer *Composer) *SalesService {
	return &SalesService{
		reader:   reader,
		composer: composer,
		now:      time.Now,
		logger:   util.ComponentLogger("sales"),
	}
}

// SaleRequest represents a sale of a base-unit quantity of one goods item.
// A zero price falls back to the sale price of the newest open batch.
type SaleRequest struct {
	GoodsID  string  `json:"goods_id" validate:"required"`
	BaseQty  float64 `json:"base_qty" validate:"gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	Customer string  `json:"customer"`
	Date     string  `json:"date"`
}

// SaleResult is a queued sale
type SaleResult struct {
	SaleID     string                 `json:"sale_id"`
	GoodsID    string                 `json:"goods_id"`
	Price      float64                `json:"price"`
	Amount     float64                `json:"amount"`
	Allocation *ledger.SaleAllocation `json:"allocation"`
}

// Sell reads the latest goods balances, allocates the quantity and enqueues
// one sale row and one snapshot per batch touched. Nothing is written when
// the open batches cannot cover the quantity.
func (s *SalesService) Sell(ctx context.Context, req *SaleRequest) (*SaleResult, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.Sell",
		attribute.String("goods_id", req.GoodsID),
		attribute.Float64("base_qty", req.BaseQty))
	defer span.End()

	if err := s.composer.check(req); err != nil {
		util.SalesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	saleDate, err := dateOr(req.Date, s.now())
	if err != nil {
		util.SalesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	batches := ledger.OpenGoodsBatches(s.reader.BulkRead(ctx, models.CollectionGoodsBalance), req.GoodsID)
	alloc := ledger.AllocateSale(batches, req.BaseQty)
	if !alloc.IsPossible {
		util.SalesTotal.WithLabelValues("shortage").Inc()
		util.StockShortagesTotal.WithLabelValues("sale").Inc()

		name := ""
		if len(batches) > 0 {
			name = batches[0].Goods
		}
		s.logger.Warn("Sale rejected on shortage",
			zap.String("goods_id", req.GoodsID),
			zap.Float64("requested", req.BaseQty),
			zap.Float64("available", alloc.Available))
		return nil, &ShortageError{
			ItemID:    req.GoodsID,
			ItemName:  name,
			Requested: req.BaseQty,
			Available: ledger.Round4(alloc.Available),
			Shortage:  ledger.Round4(alloc.Shortage),
		}
	}

	price := req.Price
	if price == 0 && len(batches) > 0 {
		price = batches[len(batches)-1].SalePrice
	}

	w := &SaleWrite{}
	amount := 0.0
	for _, item := range alloc.Items {
		b := item.Batch
		lineAmount := ledger.Round2(item.TakeBase * price)
		amount += lineAmount

		w.Sales = append(w.Sales, models.GoodsSale{
			BatchID:       b.BatchID,
			GoodsID:       b.GoodsID,
			Goods:         b.Goods,
			GoodsType:     b.GoodsType,
			SecondaryQty:  ledger.Round4(item.TakeSecondary),
			SecondaryUnit: b.SecondaryUnit,
			BaseUnit:      b.BaseUnit,
			BaseQty:       ledger.Round4(item.TakeBase),
			UnitCost:      b.UnitCost,
			SalePrice:     price,
			SaleAmount:    lineAmount,
			SaleDate:      saleDate,
			Customer:      req.Customer,
		})

		b.SecondaryQty = ledger.Round4(item.RemainingSecondary)
		b.BaseQty = ledger.Round4(item.RemainingBase)
		b.Value = ledger.Round2(item.RemainingBase * b.UnitCost)
		b.SalePrice = price
		w.Balances = append(w.Balances, b)
	}

	saleID, err := s.composer.ProcessSale(ctx, w)
	if err != nil {
		util.SalesTotal.WithLabelValues("failed").Inc()
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}

	util.SalesTotal.WithLabelValues("success").Inc()
	s.logger.Info("Sale queued",
		zap.String("sale_id", saleID),
		zap.String("goods_id", req.GoodsID),
		zap.Float64("base_qty", req.BaseQty),
		zap.Int("batches", len(alloc.Items)))

	return &SaleResult{
		SaleID:     saleID,
		GoodsID:    req.GoodsID,
		Price:      price,
		Amount:     ledger.Round2(amount),
		Allocation: &alloc,
	}, nil
}
