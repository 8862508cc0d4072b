package api

import (
	"bytes"
	"net/http"

	"inventory-sync/internal/models"
	"inventory-sync/internal/report"
	"inventory-sync/internal/service"

	"github.com/gin-gonic/gin"
)

// reconcile runs one balance pass, or publishes a reconcile command when
// async=true and a command publisher is configured
func (h *Handler) reconcile(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if c.Query("async") == "true" {
			if h.deps.Commands == nil {
				c.JSON(http.StatusNotImplemented, gin.H{"error": "Async reconciliation is disabled"})
				return
			}
			event, err := h.deps.Commands.PublishReconcileRequested(ctx, scope, c.ClientIP())
			if err != nil {
				h.writeError(c, "Failed to request reconciliation", err)
				return
			}
			c.JSON(http.StatusAccepted, event)
			return
		}

		var (
			res *service.ReconcileResult
			err error
		)
		if scope == models.ReconcileScopeGoods {
			res, err = h.deps.Reconciler.SyncGoodsBalances(ctx, nil)
		} else {
			res, err = h.deps.Reconciler.SyncProductBalances(ctx, nil)
		}
		if err != nil {
			if res != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Reconciliation incomplete",
					"details": err.Error(),
					"result":  res,
				})
				return
			}
			h.writeError(c, "Failed to reconcile balances", err)
			return
		}
		c.JSON(http.StatusAccepted, res)
	}
}

func (h *Handler) productBalances(c *gin.Context) {
	res, err := h.deps.Balances.ProductBalances(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to read product balances", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) goodsBalances(c *gin.Context) {
	res, err := h.deps.Balances.GoodsBalances(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to read goods balances", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) balancesWorkbook(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := h.deps.Balances.ProductBalances(ctx)
	if err != nil {
		h.writeError(c, "Failed to read product balances", err)
		return
	}
	goods, err := h.deps.Balances.GoodsBalances(ctx)
	if err != nil {
		h.writeError(c, "Failed to read goods balances", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBalances(&buf, products, goods); err != nil {
		h.writeError(c, "Failed to build workbook", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=balances.xlsx")
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}

func (h *Handler) diagnostics(c *gin.Context) {
	res, err := h.deps.Diagnostics.PingAll(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to run diagnostics", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
