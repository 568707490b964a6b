package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	config "github.com/lastmoment/tripfund-api/config"
)

func signToken(cfg *config.Config, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.JWTSecret)
}

// ---------------- ANONYMOUS SESSION ----------------
// The identity is opaque and only used to tag who performed an action,
// matching the original's anonymous Firebase sign-in.
func CreateSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		signed, err := signToken(cfg, "member", 30*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": signed})
	}
}

// ---------------- ADMIN PIN ----------------
// The PIN is verified server-side and exchanged for a short-lived admin
// token; the PIN itself never ships to clients.
func VerifyPIN(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			PIN string `json:"pin" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.PIN != cfg.AdminPIN {
			cfg.Logger.Warn("admin pin rejected", zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong pin"})
			return
		}

		signed, err := signToken(cfg, "admin", 12*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create admin session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": signed})
	}
}
