package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/lastmoment/tripfund-api/config"
	models "github.com/lastmoment/tripfund-api/models"
	"github.com/lastmoment/tripfund-api/reconcile"
	"github.com/lastmoment/tripfund-api/store"
	utils "github.com/lastmoment/tripfund-api/utils"
)

// ---------------- LIST ----------------
// History listing. ?period=all (default) or a canonical key like
// 2026-01; ?proof=true narrows to records carrying an uploaded proof
// (the admin review list for auto-approved uploads).
func ListPayments(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ledger, err := cfg.Store.ListPayments(c.Request.Context())
		if err != nil {
			cfg.Logger.Error("list payments failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payments"})
			return
		}

		selector := c.DefaultQuery("period", models.PeriodAll)
		if selector != models.PeriodAll {
			if _, err := models.ParsePeriod(selector); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		payments := reconcile.FilterByPeriod(ledger, selector)

		if c.Query("proof") == "true" {
			withProof := []models.Payment{}
			for _, p := range payments {
				if p.ProofURL != "" {
					withProof = append(withProof, p)
				}
			}
			payments = withProof
		}

		if len(payments) == 0 {
			c.JSON(http.StatusOK, []models.Payment{})
			return
		}

		// --- Pick the most recent payment for cache headers ---
		latest := payments[0]
		for _, p := range payments {
			if p.Date.After(latest.Date) {
				latest = p
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.Date)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.Date.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, payments)
	}
}

// ---------------- TOGGLE ----------------
// Admin flips one member's paid state for a period: delete the record
// if it exists, otherwise create one for the monthly due. The slug id
// makes a concurrent double-create collide instead of duplicate; no
// further locking, two human admins is the worst case.
func TogglePaid(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name   string `json:"name" binding:"required"`
			Period string `json:"period"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		member, ok := models.FindMember(cfg.Roster, input.Name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member"})
			return
		}

		period := models.CurrentPeriod()
		if input.Period != "" {
			parsed, err := models.ParsePeriod(input.Period)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			period = parsed
		}

		ctx := c.Request.Context()
		id := models.PaymentSlug(member.Name, period)

		_, err := cfg.Store.GetPayment(ctx, id)
		switch {
		case err == nil:
			if err := cfg.Store.DeletePayment(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				cfg.Logger.Error("toggle delete failed", zap.String("id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update payment"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": id, "paid": false})

		case errors.Is(err, store.ErrNotFound):
			payment := models.Payment{
				ID:      id,
				Name:    member.Name,
				Amount:  cfg.MonthlyDue,
				Period:  period.Key(),
				Date:    time.Now(),
				AdminID: c.GetString("session_id"),
			}
			if err := cfg.Store.PutPayment(ctx, payment); err != nil {
				cfg.Logger.Error("toggle create failed", zap.String("id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update payment"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": id, "paid": true})

		default:
			cfg.Logger.Error("toggle lookup failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update payment"})
		}
	}
}

// ---------------- REJECT PROMOTED ----------------
// Reverses an approval or an auto-approved upload. Destructive: the
// record and its hosted proof are gone, there is no audit trail.
func DeletePayment(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctx := c.Request.Context()

		payment, err := cfg.Store.GetPayment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		if err != nil {
			cfg.Logger.Error("payment lookup failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payment"})
			return
		}

		if err := cfg.Store.DeletePayment(ctx, id); err != nil {
			cfg.Logger.Error("payment delete failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete payment"})
			return
		}

		if payment.ProofURL != "" && cfg.Uploader != nil {
			if err := cfg.Uploader.Delete(ctx, payment.ProofURL); err != nil {
				cfg.Logger.Warn("proof image cleanup failed", zap.String("url", payment.ProofURL), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "payment deleted", "id": id})
	}
}
