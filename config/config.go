package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/lastmoment/tripfund-api/models"
	"github.com/lastmoment/tripfund-api/store"
)

// Uploader hosts proof images and hands back a durable URL.
type Uploader interface {
	UploadProof(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// Mailer sends a best-effort notification. May be left nil.
type Mailer interface {
	Send(to, subject, body string) error
}

type Config struct {
	Port        string
	DBName      string
	MongoClient *mongo.Client // nil in demo mode
	DemoMode    bool

	Store    store.Store
	Uploader Uploader
	Mailer   Mailer
	Logger   *zap.Logger

	Roster      []models.Member
	TargetSaldo int64
	MonthlyDue  int64
	TripDate    time.Time

	AdminPIN    string
	JWTSecret   []byte
	AutoApprove bool
	NotifyEmail string
}

// Load reads .env plus the environment and connects the store. With no
// MONGO_URI the service runs in demo mode on an in-memory store, the
// same fallback the original web client had when Firebase was
// unconfigured.
func Load(log *zap.Logger) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        envOr("PORT", "8080"),
		DBName:      envOr("DB_NAME", "lastmoment"),
		Logger:      log,
		TargetSaldo: envInt64("TARGET_SALDO", 2_000_000),
		MonthlyDue:  envInt64("MONTHLY_DUE", 12_000),
		AdminPIN:    envOr("ADMIN_PIN", "2027"),
		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		AutoApprove: os.Getenv("AUTO_APPROVE") == "true",
		NotifyEmail: os.Getenv("NOTIFY_EMAIL"),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	tripDate, err := time.Parse("2006-01-02", envOr("TRIP_DATE", "2027-09-25"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRIP_DATE: %w", err)
	}
	cfg.TripDate = tripDate

	cfg.Roster = models.DefaultRoster
	if raw := os.Getenv("ROSTER_JSON"); raw != "" {
		var roster []models.Member
		if err := json.Unmarshal([]byte(raw), &roster); err != nil {
			return nil, fmt.Errorf("invalid ROSTER_JSON: %w", err)
		}
		cfg.Roster = roster
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		log.Warn("MONGO_URI not set, running in demo mode with in-memory store")
		cfg.DemoMode = true
		cfg.Store = store.NewMemoryStore()
		return cfg, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	cfg.MongoClient = client
	cfg.Store = store.NewMongoStore(client, cfg.DBName, log)
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
