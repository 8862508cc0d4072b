package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"inventory-sync/internal/models"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://sheets.test"

func newTestClient(t *testing.T) *HTTPClient {
	t.Helper()
	c := NewHTTPClient(map[string]string{
		models.CollectionProductIntake:  testBase + "/intake",
		models.CollectionProductBalance: testBase + "/balance",
	}, 2*time.Second)
	gock.InterceptClient(c.HTTP())
	t.Cleanup(func() {
		gock.RestoreClient(c.HTTP())
		gock.Off()
	})
	return c
}

func TestBulkReadDecodesRows(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBase).
		Get("/intake").
		Reply(200).
		JSON([]map[string]any{
			{"kirim id": "B1", "miqdor": 10, "narx": "1500"},
			{"kirim id": "B2", "miqdor": 2.5},
		})

	rows := c.BulkRead(context.Background(), models.CollectionProductIntake)

	require.Len(t, rows, 2)
	assert.Equal(t, "B1", rows[0].Str(models.FieldBatchID))
	assert.Equal(t, 10.0, rows[0].Num(models.FieldQty))
	assert.Equal(t, 1500.0, rows[0].Num(models.FieldPrice))
	assert.Equal(t, 2.5, rows[1].Num(models.FieldQty))
	assert.True(t, gock.IsDone())
}

func TestBulkReadAcceptsWrappedData(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBase).
		Get("/intake").
		Reply(200).
		JSON(map[string]any{"data": []map[string]any{{"kirim id": "B9"}}})

	rows := c.BulkRead(context.Background(), models.CollectionProductIntake)

	require.Len(t, rows, 1)
	assert.Equal(t, "B9", rows[0].Str(models.FieldBatchID))
}

func TestBulkReadFailureReturnsEmpty(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBase).Get("/intake").Reply(500)
	assert.Empty(t, c.BulkRead(context.Background(), models.CollectionProductIntake))

	gock.New(testBase).Get("/intake").Reply(200).BodyString("<html>not json</html>")
	assert.Empty(t, c.BulkRead(context.Background(), models.CollectionProductIntake))

	assert.Empty(t, c.BulkRead(context.Background(), "unknown"))
}

func TestWritePostsRowAsJSON(t *testing.T) {
	c := newTestClient(t)

	var captured map[string]any
	gock.New(testBase).
		Post("/balance").
		MatchHeader("Content-Type", "application/json").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			return true, json.NewDecoder(req.Body).Decode(&captured)
		}).
		Reply(200)

	res := c.Write(context.Background(), models.CollectionProductBalance, models.Row{
		models.FieldBatchID: "B1",
		models.FieldQty:     4.0,
	})

	assert.True(t, res.Delivered)
	assert.True(t, gock.IsDone())
	assert.Equal(t, "B1", captured["kirim id"])
	assert.Equal(t, 4.0, captured["miqdor"])
}

func TestWriteRedirectCountsAsDelivered(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBase).Post("/balance").Reply(302).SetHeader("Location", testBase+"/done")
	gock.New(testBase).Get("/done").Reply(200)

	res := c.Write(context.Background(), models.CollectionProductBalance, models.Row{})
	assert.True(t, res.Delivered)
}

func TestWriteNotDelivered(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBase).Post("/balance").Reply(500)
	assert.False(t, c.Write(context.Background(), models.CollectionProductBalance, models.Row{}).Delivered)

	gock.New(testBase).Post("/balance").ReplyError(errors.New("connection reset"))
	assert.False(t, c.Write(context.Background(), models.CollectionProductBalance, models.Row{}).Delivered)

	assert.False(t, c.Write(context.Background(), "unknown", models.Row{}).Delivered)
}

func TestPing(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBase).Head("/intake").Reply(405)
	res := c.Ping(context.Background(), models.CollectionProductIntake)
	assert.True(t, res.Reachable)
	assert.Equal(t, models.CollectionProductIntake, res.Target)

	gock.New(testBase).Head("/balance").ReplyError(errors.New("dial tcp: no route to host"))
	res = c.Ping(context.Background(), models.CollectionProductBalance)
	assert.False(t, res.Reachable)
	assert.Zero(t, res.LatencyMs)
}
