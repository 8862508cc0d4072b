package service

import (
	"context"

	"inventory-sync/internal/gateway"
	"inventory-sync/internal/models"
	"inventory-sync/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DiagnosticsReport is the reachability of every collection endpoint
type DiagnosticsReport struct {
	Results []models.PingResult `json:"results"`
	Active  int                 `json:"active"`
	Total   int                 `json:"total"`
}

// Diagnostics pings collection endpoints
type Diagnostics struct {
	gw          gateway.Gateway
	collections []string
	logger      *zap.Logger
}

// NewDiagnostics creates diagnostics over the given collections
func NewDiagnostics(gw gateway.Gateway, collections []string) *Diagnostics {
	return &Diagnostics{
		gw:          gw,
		collections: collections,
		logger:      util.ComponentLogger("diagnostics"),
	}
}

// PingAll pings every collection concurrently. Results keep collection order.
func (d *Diagnostics) PingAll(ctx context.Context) (*DiagnosticsReport, error) {
	ctx, span := util.StartSpan(ctx, "Diagnostics.PingAll")
	defer span.End()

	results := make([]models.PingResult, len(d.collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range d.collections {
		i, c := i, c
		g.Go(func() error {
			results[i] = d.gw.Ping(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &DiagnosticsReport{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Reachable {
			report.Active++
		}
	}
	d.logger.Debug("Diagnostics finished",
		zap.Int("active", report.Active),
		zap.Int("total", report.Total))
	return report, nil
}
