package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	config "github.com/lastmoment/tripfund-api/config"
	routes "github.com/lastmoment/tripfund-api/routes"
	utils "github.com/lastmoment/tripfund-api/utils"
)

func newLogger() *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("APP_ENV") != "production" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	log, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	return log
}

func main() {
	log := newLogger()
	defer log.Sync()

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}
	defer cfg.Store.Close(context.Background())

	if up, err := utils.NewCloudinaryUploader(); err != nil {
		log.Warn("cloudinary not configured, proof uploads disabled", zap.Error(err))
	} else {
		cfg.Uploader = up
	}
	if cfg.NotifyEmail != "" {
		cfg.Mailer = &utils.ZeptoMailer{}
	}

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "If-None-Match"},
		ExposeHeaders: []string{"ETag", "Last-Modified"},
	}))

	routes.SetupRoutes(r, cfg)

	log.Info("listening",
		zap.String("port", cfg.Port),
		zap.Bool("demo_mode", cfg.DemoMode),
		zap.Bool("auto_approve", cfg.AutoApprove))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
