package api

import (
	"io"
	"net/http"
	"strconv"

	"inventory-sync/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type statusUpdate struct {
	Status  models.SyncStatus `json:"status"`
	Pending int               `json:"pending"`
}

func (h *Handler) syncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusUpdate{
		Status:  h.deps.Queue.Status(),
		Pending: h.deps.Queue.Pending(),
	})
}

func (h *Handler) syncTasks(c *gin.Context) {
	tasks := h.deps.Queue.Tasks()
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// syncEvents streams status changes as server-sent events until the client
// goes away. Updates a slow client cannot keep up with are dropped.
func (h *Handler) syncEvents(c *gin.Context) {
	updates := make(chan statusUpdate, 16)
	unsubscribe := h.deps.Queue.Subscribe(func(status models.SyncStatus, pending int) {
		select {
		case updates <- statusUpdate{Status: status, Pending: pending}:
		default:
		}
	})
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case u := <-updates:
			c.SSEvent("status", u)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (h *Handler) syncHistory(c *gin.Context) {
	if h.deps.History == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Sync history is not recorded"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	entries, err := h.deps.History.RecentSyncEvents(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, "Failed to read sync history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": entries})
}

// dropHead removes a poisoned head task
func (h *Handler) dropHead(c *gin.Context) {
	task, err := h.deps.Queue.DropHead(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to drop head task", err)
		return
	}

	h.logger.Warn("Operator dropped head task",
		zap.String("task_id", task.ID),
		zap.String("target", task.Target),
		zap.String("remote_addr", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{
		"dropped": task,
		"pending": h.deps.Queue.Pending(),
	})
}
