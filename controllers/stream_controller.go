package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/lastmoment/tripfund-api/config"
	models "github.com/lastmoment/tripfund-api/models"
	"github.com/lastmoment/tripfund-api/reconcile"
)

// ---------------- LIVE STREAM ----------------
// SSE endpoint replacing the original's Firestore onSnapshot wiring: a
// full dashboard snapshot on connect and after every ledger or queue
// change. Snapshots are re-derived from scratch each time, so dropped
// or coalesced change events are harmless.
func StreamDashboard(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		events, err := cfg.Store.Watch(ctx)
		if err != nil {
			cfg.Logger.Error("watch failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "live updates unavailable"})
			return
		}

		snap, err := dashboardSnapshot(ctx, cfg)
		if err != nil {
			cfg.Logger.Error("snapshot failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build snapshot"})
			return
		}
		c.SSEvent("snapshot", snap)
		c.Writer.Flush()

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case <-keepalive.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			case _, ok := <-events:
				if !ok {
					return false
				}
				snap, err := dashboardSnapshot(ctx, cfg)
				if err != nil {
					cfg.Logger.Error("snapshot failed", zap.Error(err))
					return true // keep the stream, retry on next change
				}
				c.SSEvent("snapshot", snap)
				return true
			}
		})
	}
}

func dashboardSnapshot(ctx context.Context, cfg *config.Config) (gin.H, error) {
	ledger, err := cfg.Store.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := cfg.Store.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	period := models.CurrentPeriod()
	return gin.H{
		"summary":   reconcile.Aggregate(ledger, cfg.TargetSaldo),
		"groups":    reconcile.GroupByStatus(cfg.Roster, period, ledger, pending),
		"countdown": reconcile.CountdownTo(time.Now(), cfg.TripDate),
		"period": gin.H{
			"key":   period.Key(),
			"label": period.Label(),
		},
	}, nil
}
