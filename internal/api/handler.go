package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-sync/internal/models"
	"inventory-sync/internal/service"
	"inventory-sync/internal/syncqueue"
	"inventory-sync/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SyncQueue is the operator view of the write queue
type SyncQueue interface {
	Status() models.SyncStatus
	Pending() int
	Tasks() []models.Task
	Subscribe(l syncqueue.Listener) func()
	DropHead(ctx context.Context) (models.Task, error)
}

// SyncHistory lists recorded delivery outcomes
type SyncHistory interface {
	RecentSyncEvents(ctx context.Context, limit int) ([]models.SyncLogEntry, error)
}

// CommandPublisher sends reconcile commands to workers
type CommandPublisher interface {
	PublishReconcileRequested(ctx context.Context, scope, requestedBy string) (*models.ReconcileRequestedEvent, error)
}

// Dependencies wires the handler. History, Commands and Ready are optional.
type Dependencies struct {
	Queue       SyncQueue
	Composer    *service.Composer
	Production  *service.ProductionService
	Sales       *service.SalesService
	Reconciler  *service.Reconciler
	Balances    *service.BalanceService
	Diagnostics *service.Diagnostics
	History     SyncHistory
	Commands    CommandPublisher
	Ready       func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: util.ComponentLogger("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		sg := v1.Group("/sync")
		sg.GET("/status", h.syncStatus)
		sg.GET("/tasks", h.syncTasks)
		sg.GET("/events", h.syncEvents)
		sg.GET("/history", h.syncHistory)
		sg.POST("/drop-head", h.dropHead)

		v1.POST("/products", h.createProduct)
		v1.POST("/goods", h.createGoods)
		v1.POST("/recipes", h.createRecipe)
		v1.POST("/product-intakes", h.createProductIntake)
		v1.POST("/goods-intakes", h.createGoodsIntakeBatch)
		v1.POST("/productions/preview", h.previewProduction)
		v1.POST("/productions", h.confirmProduction)
		v1.POST("/sales", h.createSale)

		v1.POST("/reconcile/products", h.reconcile(models.ReconcileScopeProducts))
		v1.POST("/reconcile/goods", h.reconcile(models.ReconcileScopeGoods))

		v1.GET("/balances/products", h.productBalances)
		v1.GET("/balances/goods", h.goodsBalances)
		v1.GET("/reports/balances.xlsx", h.balancesWorkbook)
		v1.GET("/diagnostics", h.diagnostics)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports whether local queue storage is reachable
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.deps.Ready != nil {
		if err := h.deps.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"details": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// writeError maps service errors onto status codes
func (h *Handler) writeError(c *gin.Context, message string, err error) {
	var shortage *service.ShortageError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &shortage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "Insufficient stock",
			"item_id":   shortage.ItemID,
			"item":      shortage.ItemName,
			"requested": shortage.Requested,
			"available": shortage.Available,
			"shortage":  shortage.Shortage,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": invalid.Fields,
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrRecipeNotFound), errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, syncqueue.ErrQueueEmpty):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Sync queue is empty",
		})
	case errors.Is(err, syncqueue.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sync queue is shut down",
		})
	default:
		h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
