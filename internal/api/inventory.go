package api

import (
	"net/http"

	"inventory-sync/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.deps.Composer.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to create product", err)
		return
	}
	c.JSON(http.StatusAccepted, product)
}

func (h *Handler) createGoods(c *gin.Context) {
	var req service.CreateGoodsRequest
	if !bindJSON(c, &req) {
		return
	}

	goods, err := h.deps.Composer.CreateGoods(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to create goods", err)
		return
	}
	c.JSON(http.StatusAccepted, goods)
}

func (h *Handler) createRecipe(c *gin.Context) {
	var req service.CreateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipeID, err := h.deps.Composer.CreateRecipe(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to save recipe", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"recipe_id": recipeID})
}

func (h *Handler) createProductIntake(c *gin.Context) {
	var req service.CreateProductIntakeRequest
	if !bindJSON(c, &req) {
		return
	}

	intake, err := h.deps.Composer.CreateProductIntake(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to record product intake", err)
		return
	}
	c.JSON(http.StatusAccepted, intake)
}

func (h *Handler) createGoodsIntakeBatch(c *gin.Context) {
	var req service.CreateGoodsIntakeBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	intakes, err := h.deps.Composer.CreateGoodsIntakeBatch(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to record goods intake", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"intakes": intakes})
}

func (h *Handler) previewProduction(c *gin.Context) {
	var req service.ProductionRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.deps.Production.Preview(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to plan production", err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) confirmProduction(c *gin.Context) {
	var req service.ProductionRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.deps.Production.Confirm(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to record production", err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

func (h *Handler) createSale(c *gin.Context) {
	var req service.SaleRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.deps.Sales.Sell(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to record sale", err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}
