package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/lastmoment/tripfund-api/config"
	models "github.com/lastmoment/tripfund-api/models"
	"github.com/lastmoment/tripfund-api/store"
)

const maxProofSize = 5 << 20 // 5MB

// ---------------- SUBMIT PROOF ----------------
// Member uploads a transfer proof image. Depending on AUTO_APPROVE the
// submission either enters the pending queue for admin review or lands
// in the ledger directly (the proof stays attached for later rejection).
func SubmitProof(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.PostForm("name")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		member, ok := models.FindMember(cfg.Roster, name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member"})
			return
		}

		period := models.CurrentPeriod()
		if q := c.PostForm("period"); q != "" {
			parsed, err := models.ParsePeriod(q)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			period = parsed
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no image uploaded"})
			return
		}
		if fileHeader.Size > maxProofSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large, max 5MB"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxProofSize+1))
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
			return
		}
		if len(data) > maxProofSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large, max 5MB"})
			return
		}

		switch http.DetectContentType(data) {
		case "image/jpeg", "image/png", "image/webp":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type, only JPG, PNG, WEBP allowed"})
			return
		}

		ctx := c.Request.Context()

		proofURL := "demo://proofs/" + models.NewPaymentID()
		if cfg.Uploader != nil {
			proofURL, err = cfg.Uploader.UploadProof(ctx, bytes.NewReader(data))
			if err != nil {
				cfg.Logger.Error("proof upload failed", zap.String("name", member.Name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed"})
				return
			}
		}

		now := time.Now()
		sessionID := c.GetString("session_id")

		if cfg.AutoApprove {
			payment := models.Payment{
				ID:       models.NewPaymentID(),
				Name:     member.Name,
				Amount:   cfg.MonthlyDue,
				Period:   period.Key(),
				Date:     now,
				ProofURL: proofURL,
			}
			if err := cfg.Store.PutPayment(ctx, payment); err != nil {
				cfg.Logger.Error("auto-approve create failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record payment"})
				return
			}
			notifyUpload(cfg, member.Name, period, proofURL)
			c.JSON(http.StatusCreated, gin.H{"id": payment.ID, "status": "paid"})
			return
		}

		pending := models.PendingPayment{
			ID:         models.NewPaymentID(),
			Name:       member.Name,
			Amount:     cfg.MonthlyDue,
			Period:     period.Key(),
			ProofURL:   proofURL,
			Status:     models.PendingStatus,
			UploadedAt: now,
			SessionID:  sessionID,
		}
		if err := cfg.Store.PutPending(ctx, pending); err != nil {
			cfg.Logger.Error("pending create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record submission"})
			return
		}
		notifyUpload(cfg, member.Name, period, proofURL)

		c.JSON(http.StatusCreated, gin.H{"id": pending.ID, "status": models.PendingStatus})
	}
}

// notifyUpload mails the treasurer in the background; failures are
// logged and never surface to the uploader.
func notifyUpload(cfg *config.Config, name string, period models.Period, proofURL string) {
	if cfg.Mailer == nil || cfg.NotifyEmail == "" {
		return
	}
	go func() {
		subject := fmt.Sprintf("Bukti transfer baru: %s (%s)", name, period.Label())
		body := fmt.Sprintf("<p>%s mengirim bukti transfer untuk %s.</p><p><a href=%q>Lihat bukti</a></p>",
			name, period.Label(), proofURL)
		if err := cfg.Mailer.Send(cfg.NotifyEmail, subject, body); err != nil {
			cfg.Logger.Warn("upload notification failed", zap.Error(err))
		}
	}()
}

// ---------------- LIST PENDING ----------------
func ListPending(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := cfg.Store.ListPending(c.Request.Context())
		if err != nil {
			cfg.Logger.Error("list pending failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch pending payments"})
			return
		}
		c.JSON(http.StatusOK, pending)
	}
}

// ---------------- APPROVE ----------------
// Promotes a submission into the ledger. The ledger record is created
// before the queue entry is deleted: a crash in between duplicates the
// submission, which a human can see and fix, instead of losing it.
func ApprovePending(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctx := c.Request.Context()

		pending, err := cfg.Store.GetPending(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
			return
		}
		if err != nil {
			cfg.Logger.Error("pending lookup failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch submission"})
			return
		}

		payment := models.Payment{
			ID:       models.NewPaymentID(),
			Name:     pending.Name,
			Amount:   pending.Amount,
			Period:   pending.Period,
			Date:     pending.UploadedAt,
			ProofURL: pending.ProofURL,
			AdminID:  c.GetString("session_id"),
		}
		if err := cfg.Store.PutPayment(ctx, payment); err != nil {
			cfg.Logger.Error("approve create failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve submission"})
			return
		}

		if err := cfg.Store.DeletePending(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			// The payment exists; the stale queue entry shows up twice
			// until an admin rejects it.
			cfg.Logger.Error("approve cleanup failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":      "approved but could not remove from queue",
				"payment_id": payment.ID,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "submission approved", "payment_id": payment.ID})
	}
}

// ---------------- REJECT ----------------
func RejectPending(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctx := c.Request.Context()

		pending, err := cfg.Store.GetPending(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
			return
		}
		if err != nil {
			cfg.Logger.Error("pending lookup failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch submission"})
			return
		}

		if err := cfg.Store.DeletePending(ctx, id); err != nil {
			cfg.Logger.Error("reject delete failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject submission"})
			return
		}

		if pending.ProofURL != "" && cfg.Uploader != nil {
			if err := cfg.Uploader.Delete(ctx, pending.ProofURL); err != nil {
				cfg.Logger.Warn("proof image cleanup failed", zap.String("url", pending.ProofURL), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "submission rejected", "id": id})
	}
}
