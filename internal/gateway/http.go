package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"inventory-sync/internal/models"
	"inventory-sync/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// HTTPClient talks to one spreadsheet endpoint per collection: GET returns
// every row, POST appends one row, HEAD is used as a reachability probe.
type HTTPClient struct {
	endpoints map[string]string
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPClient creates a gateway over the given collection endpoints
func NewHTTPClient(endpoints map[string]string, timeout time.Duration) *HTTPClient {
	eps := make(map[string]string, len(endpoints))
	for k, v := range endpoints {
		eps[k] = v
	}
	return &HTTPClient{
		endpoints: eps,
		client:    &http.Client{Timeout: timeout},
		logger:    util.ComponentLogger("gateway"),
	}
}

// HTTP returns the underlying client
func (g *HTTPClient) HTTP() *http.Client {
	return g.client
}

func (g *HTTPClient) endpoint(collection string) (string, error) {
	url, ok := g.endpoints[collection]
	if !ok || url == "" {
		return "", fmt.Errorf("no endpoint configured for collection %q", collection)
	}
	return url, nil
}

// BulkRead fetches every row of a collection
func (g *HTTPClient) BulkRead(ctx context.Context, collection string) []models.Row {
	ctx, span := util.StartSpan(ctx, "Gateway.BulkRead", attribute.String("collection", collection))
	defer span.End()

	start := time.Now()
	rows, err := g.bulkRead(ctx, collection)
	util.GatewayRequestLatency.WithLabelValues(collection, "read").Observe(time.Since(start).Seconds())
	if err != nil {
		util.RecordError(span, err)
		util.GatewayReadFailuresTotal.WithLabelValues(collection).Inc()
		g.logger.Warn("Bulk read failed, returning empty result",
			zap.String("collection", collection),
			zap.Error(err))
		return []models.Row{}
	}
	return rows
}

func (g *HTTPClient) bulkRead(ctx context.Context, collection string) ([]models.Row, error) {
	url, err := g.endpoint(collection)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return decodeRows(body)
}

// decodeRows accepts a bare JSON array or an object wrapping it under "data".
func decodeRows(body []byte) ([]models.Row, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []models.Row{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if body[0] == '{' {
		var wrapped struct {
			Data []models.Row `json:"data"`
		}
		if err := dec.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode rows: %w", err)
		}
		if wrapped.Data == nil {
			return []models.Row{}, nil
		}
		return wrapped.Data, nil
	}

	var rows []models.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return rows, nil
}

// Write appends one row to a collection
func (g *HTTPClient) Write(ctx context.Context, collection string, row models.Row) models.WriteResult {
	ctx, span := util.StartSpan(ctx, "Gateway.Write", attribute.String("collection", collection))
	defer span.End()

	start := time.Now()
	err := g.write(ctx, collection, row)
	util.GatewayRequestLatency.WithLabelValues(collection, "write").Observe(time.Since(start).Seconds())
	if err != nil {
		util.RecordError(span, err)
		g.logger.Warn("Write not delivered",
			zap.String("collection", collection),
			zap.Error(err))
		return models.WriteResult{Delivered: false}
	}
	return models.WriteResult{Delivered: true}
}

func (g *HTTPClient) write(ctx context.Context, collection string, row models.Row) error {
	url, err := g.endpoint(collection)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Spreadsheet scripts answer writes with a redirect to the result page.
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Ping probes a collection endpoint. Any answer counts as reachable.
func (g *HTTPClient) Ping(ctx context.Context, collection string) models.PingResult {
	ctx, span := util.StartSpan(ctx, "Gateway.Ping", attribute.String("collection", collection))
	defer span.End()

	result := models.PingResult{Target: collection}

	url, err := g.endpoint(collection)
	if err != nil {
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return result
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	elapsed := time.Since(start)
	util.GatewayRequestLatency.WithLabelValues(collection, "ping").Observe(elapsed.Seconds())
	if err != nil {
		util.RecordError(span, err)
		g.logger.Debug("Ping failed", zap.String("collection", collection), zap.Error(err))
		return result
	}
	resp.Body.Close()

	result.Reachable = true
	result.LatencyMs = elapsed.Milliseconds()
	return result
}
