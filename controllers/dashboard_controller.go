package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/lastmoment/tripfund-api/config"
	models "github.com/lastmoment/tripfund-api/models"
	"github.com/lastmoment/tripfund-api/reconcile"
)

// ---------------- SUMMARY ----------------
func GetSummary(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ledger, err := cfg.Store.ListPayments(c.Request.Context())
		if err != nil {
			cfg.Logger.Error("list payments failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payments"})
			return
		}

		period := models.CurrentPeriod()
		c.JSON(http.StatusOK, gin.H{
			"summary":   reconcile.Aggregate(ledger, cfg.TargetSaldo),
			"countdown": reconcile.CountdownTo(time.Now(), cfg.TripDate),
			"period": gin.H{
				"key":   period.Key(),
				"label": period.Label(),
			},
			"monthly_due": cfg.MonthlyDue,
		})
	}
}

// ---------------- MEMBER STATUS ----------------
// Groups the roster into paid / pending / unpaid for one period
// (default: the current one). Group order follows the roster.
func GetMembersStatus(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		period := models.CurrentPeriod()
		if q := c.Query("period"); q != "" {
			parsed, err := models.ParsePeriod(q)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			period = parsed
		}

		ctx := c.Request.Context()
		ledger, err := cfg.Store.ListPayments(ctx)
		if err != nil {
			cfg.Logger.Error("list payments failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payments"})
			return
		}
		pending, err := cfg.Store.ListPending(ctx)
		if err != nil {
			cfg.Logger.Error("list pending failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch pending payments"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"period": gin.H{
				"key":   period.Key(),
				"label": period.Label(),
			},
			"groups": reconcile.GroupByStatus(cfg.Roster, period, ledger, pending),
		})
	}
}
