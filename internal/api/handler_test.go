package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-sync/internal/gateway"
	"inventory-sync/internal/models"
	"inventory-sync/internal/report"
	"inventory-sync/internal/service"
	"inventory-sync/internal/syncqueue"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	gw     *gateway.Memory
	queue  *syncqueue.Queue
}

type stubHistory struct {
	entries []models.SyncLogEntry
}

func (s *stubHistory) RecentSyncEvents(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	if len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

// newFixture builds the router over a queue that is never loaded, so
// enqueued writes stay pending for inspection.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := gateway.NewMemory()
	q := syncqueue.New(gw, syncqueue.NewMemoryStorage())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Shutdown(ctx)
	})

	composer := service.NewComposer(q)
	h := NewHandler(Dependencies{
		Queue:       q,
		Composer:    composer,
		Production:  service.NewProductionService(gw, composer),
		Sales:       service.NewSalesService(gw, composer),
		Reconciler:  service.NewReconciler(gw, q),
		Balances:    service.NewBalanceService(gw),
		Diagnostics: service.NewDiagnostics(gw, models.Collections),
		History: &stubHistory{entries: []models.SyncLogEntry{
			{ID: 1, EventType: models.EventTypeTaskDelivered, TaskID: "t1"},
		}},
	})

	router := gin.New()
	h.SetupRoutes(router)
	return &fixture{router: router, gw: gw, queue: q}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ready", nil).Code)
}

func TestReadyReportsStorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(Dependencies{Ready: func(ctx context.Context) error { return errors.New("db down") }})
	router := gin.New()
	h.SetupRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProductIntakeIsQueued(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/product-intakes", gin.H{
		"product_id": "P1", "product": "Flour", "qty": 50, "unit": "kg", "price": 1000,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["batch_id"], 7)

	status := decode(t, f.do(http.MethodGet, "/api/v1/sync/status", nil))
	assert.Equal(t, "idle", status["status"])
	assert.Equal(t, 2.0, status["pending"])

	tasks := decode(t, f.do(http.MethodGet, "/api/v1/sync/tasks", nil))
	assert.Equal(t, 2.0, tasks["count"])
}

func TestValidationErrorIs400(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/product-intakes", gin.H{"product_id": "P1", "qty": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Equal(t, "gt", fields["qty"])
	assert.Equal(t, 0, f.queue.Pending())

	w = f.do(http.MethodPost, "/api/v1/products", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaleShortageIs422(t *testing.T) {
	f := newFixture(t)
	f.gw.Seed(models.CollectionGoodsBalance, models.GoodsBalance{
		BatchID: "B1", GoodsID: "G1", Goods: "Cola", BaseQty: 5, SecondaryQty: 1,
		Date: "2024-01-01 00:00:00", Kind: models.KindIntake,
	}.ToRow())

	w := f.do(http.MethodPost, "/api/v1/sales", gin.H{"goods_id": "G1", "base_qty": 8})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, 3.0, body["shortage"])
	assert.Equal(t, "G1", body["item_id"])
	assert.Equal(t, 0, f.queue.Pending())
}

func TestProductionWithoutRecipeIs404(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/productions/preview", gin.H{"goods_id": "G1", "output_qty": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDropHead(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/sync/drop-head", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusAccepted,
		f.do(http.MethodPost, "/api/v1/products", gin.H{"name": "Salt", "unit": "kg"}).Code)

	w = f.do(http.MethodPost, "/api/v1/sync/drop-head", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 0.0, body["pending"])
	assert.Equal(t, models.CollectionProducts, body["dropped"].(map[string]interface{})["target"])
}

func TestReconcileProducts(t *testing.T) {
	f := newFixture(t)
	f.gw.Seed(models.CollectionProductIntake,
		models.ProductIntake{BatchID: "A", ProductID: "P1", Qty: 10, Price: 2, Kind: models.KindIntake}.ToRow())

	w := f.do(http.MethodPost, "/api/v1/reconcile/products", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["enqueued"])
	assert.Equal(t, 1, f.queue.Pending())

	w = f.do(http.MethodPost, "/api/v1/reconcile/goods?async=true", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestBalancesAndWorkbook(t *testing.T) {
	f := newFixture(t)
	f.gw.Seed(models.CollectionProductBalance, models.ProductBalance{
		BatchID: "A", ProductID: "P1", PlannedQty: 3, ActualQty: 3, Price: 2, Value: 6,
		Date: "2024-01-01 00:00:00", Kind: models.KindIntake,
	}.ToRow())

	body := decode(t, f.do(http.MethodGet, "/api/v1/balances/products", nil))
	assert.Equal(t, 6.0, body["total_value"])
	assert.Len(t, body["batches"], 1)

	w := f.do(http.MethodGet, "/api/v1/reports/balances.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestDiagnostics(t *testing.T) {
	f := newFixture(t)
	f.gw.SetUnreachable(models.CollectionStaff, true)

	body := decode(t, f.do(http.MethodGet, "/api/v1/diagnostics", nil))
	assert.Equal(t, float64(len(models.Collections)-1), body["active"])
}

func TestSyncHistory(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/sync/history?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["events"], 1)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/sync/history?limit=x", nil).Code)
}

type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestSyncEventsStreamsCurrentStatus(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/events", nil).WithContext(ctx)
	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		f.router.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "event:status"), body)
	assert.Contains(t, body, `"status":"idle"`)
}
