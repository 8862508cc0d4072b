package service

import (
	"context"

	"inventory-sync/internal/ledger"
	"inventory-sync/internal/models"
	"inventory-sync/internal/util"
)

// ProductBalanceReport lists the open product batches
type ProductBalanceReport struct {
	Batches    []models.ProductBalance `json:"batches"`
	TotalValue float64                 `json:"total_value"`
}

// GoodsBalanceReport lists the open goods batches
type GoodsBalanceReport struct {
	Batches    []models.GoodsBalance `json:"batches"`
	TotalValue float64               `json:"total_value"`
}

// BalanceService reads the latest snapshot of every batch
type BalanceService struct {
	reader Reader
}

// NewBalanceService creates a new balance service
func NewBalanceService(reader Reader) *BalanceService {
	return &BalanceService{reader: reader}
}

// ProductBalances returns the latest snapshot of each product batch with
// stock left
func (s *BalanceService) ProductBalances(ctx context.Context) (*ProductBalanceReport, error) {
	ctx, span := util.StartSpan(ctx, "BalanceService.ProductBalances")
	defer span.End()

	report := &ProductBalanceReport{Batches: []models.ProductBalance{}}
	for _, b := range ledger.LatestProductBalances(s.reader.BulkRead(ctx, models.CollectionProductBalance)) {
		if b.ActualQty <= models.Epsilon {
			continue
		}
		report.Batches = append(report.Batches, b)
		report.TotalValue += b.Value
	}
	report.TotalValue = ledger.Round2(report.TotalValue)
	return report, nil
}

// GoodsBalances returns the latest snapshot of each goods batch with stock left
func (s *BalanceService) GoodsBalances(ctx context.Context) (*GoodsBalanceReport, error) {
	ctx, span := util.StartSpan(ctx, "BalanceService.GoodsBalances")
	defer span.End()

	report := &GoodsBalanceReport{Batches: []models.GoodsBalance{}}
	for _, b := range ledger.LatestGoodsBalances(s.reader.BulkRead(ctx, models.CollectionGoodsBalance)) {
		if b.BaseQty <= models.Epsilon {
			continue
		}
		report.Batches = append(report.Batches, b)
		report.TotalValue += b.Value
	}
	report.TotalValue = ledger.Round2(report.TotalValue)
	return report, nil
}
