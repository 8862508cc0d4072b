package report

import (
	"fmt"
	"io"

	"inventory-sync/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	SheetProducts = "Products"
	SheetGoods    = "Goods"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var productHeadings = []string{"Batch ID", "Product ID", "Product", "Planned", "Actual", "Unit", "Price", "Value", "Date"}

var goodsHeadings = []string{"Batch ID", "Goods ID", "Goods", "Type", "Secondary", "Unit", "Base", "Base Unit", "Unit Cost", "Value", "Sale Price", "Date"}

// BalancesWorkbook builds a workbook with one sheet per balance listing and
// a totals row under each
func BalancesWorkbook(products *service.ProductBalanceReport, goods *service.GoodsBalanceReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetProducts); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetGoods); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	productRows := make([][]interface{}, 0, len(products.Batches)+1)
	for _, b := range products.Batches {
		productRows = append(productRows, []interface{}{
			b.BatchID, b.ProductID, b.Product, b.PlannedQty, b.ActualQty, b.Unit, b.Price, b.Value, b.Date,
		})
	}
	productRows = append(productRows, totalsRow(len(productHeadings), 7, products.TotalValue))

	goodsRows := make([][]interface{}, 0, len(goods.Batches)+1)
	for _, b := range goods.Batches {
		goodsRows = append(goodsRows, []interface{}{
			b.BatchID, b.GoodsID, b.Goods, b.GoodsType, b.SecondaryQty, b.SecondaryUnit,
			b.BaseQty, b.BaseUnit, b.UnitCost, b.Value, b.SalePrice, b.Date,
		})
	}
	goodsRows = append(goodsRows, totalsRow(len(goodsHeadings), 9, goods.TotalValue))

	if err := writeSheet(f, SheetProducts, productHeadings, productRows); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetGoods, goodsHeadings, goodsRows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteBalances streams the balances workbook to w
func WriteBalances(w io.Writer, products *service.ProductBalanceReport, goods *service.GoodsBalanceReport) error {
	f, err := BalancesWorkbook(products, goods)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func totalsRow(width, valueCol int, total float64) []interface{} {
	row := make([]interface{}, width)
	row[0] = "Total"
	row[valueCol] = total
	return row
}

func writeSheet(f *excelize.File, sheet string, headings []string, rows [][]interface{}) error {
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set heading: %w", err)
		}
	}

	for r, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to set row %d: %w", r+2, err)
		}
	}
	return nil
}
