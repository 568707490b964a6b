package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/lastmoment/tripfund-api/config"
	controllers "github.com/lastmoment/tripfund-api/controllers"
	middleware "github.com/lastmoment/tripfund-api/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.POST("/auth/session", controllers.CreateSession(cfg))
	r.POST("/auth/pin", controllers.VerifyPIN(cfg))

	// read side, no auth: the dashboard is open to the whole group
	r.GET("/summary", controllers.GetSummary(cfg))
	r.GET("/members/status", controllers.GetMembersStatus(cfg))
	r.GET("/payments", controllers.ListPayments(cfg))
	r.GET("/stream", controllers.StreamDashboard(cfg))

	auth := middleware.AuthMiddleware(cfg)

	// member uploads (any valid session)
	payments := r.Group("/payments")
	payments.Use(auth)
	{
		payments.POST("/proof", controllers.SubmitProof(cfg))
	}

	// admin-only mutations
	admin := r.Group("/admin")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.POST("/toggle", controllers.TogglePaid(cfg))
		admin.GET("/pending", controllers.ListPending(cfg))
		admin.POST("/pending/:id/approve", controllers.ApprovePending(cfg))
		admin.DELETE("/pending/:id", controllers.RejectPending(cfg))
		admin.DELETE("/payments/:id", controllers.DeletePayment(cfg))
	}
}
