package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "github.com/lastmoment/tripfund-api/config"
	models "github.com/lastmoment/tripfund-api/models"
	"github.com/lastmoment/tripfund-api/routes"
	"github.com/lastmoment/tripfund-api/store"
)

type fakeUploader struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	failNext bool
}

func (f *fakeUploader) UploadProof(ctx context.Context, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return "", fmt.Errorf("upload rejected")
	}
	f.uploads++
	return fmt.Sprintf("https://img.test/proofs/proof_%d.jpg", f.uploads), nil
}

func (f *fakeUploader) Delete(ctx context.Context, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, imageURL)
	return nil
}

func newTestRouter(t *testing.T, autoApprove bool) (*gin.Engine, *config.Config, *fakeUploader) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	up := &fakeUploader{}
	cfg := &config.Config{
		Store:       store.NewMemoryStore(),
		Uploader:    up,
		Logger:      zap.NewNop(),
		Roster:      models.DefaultRoster,
		TargetSaldo: 2_000_000,
		MonthlyDue:  12_000,
		TripDate:    time.Date(2027, 9, 25, 0, 0, 0, 0, time.UTC),
		AdminPIN:    "2027",
		JWTSecret:   []byte("test-secret"),
		AutoApprove: autoApprove,
	}

	r := gin.New()
	routes.SetupRoutes(r, cfg)
	return r, cfg, up
}

func do(r *gin.Engine, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func adminToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, http.MethodPost, "/auth/pin", "", strings.NewReader(`{"pin":"2027"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w)["token"].(string)
}

func sessionToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, http.MethodPost, "/auth/session", "", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	return decode(t, w)["token"].(string)
}

// pngMagic makes DetectContentType report image/png.
var pngMagic = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, bytes.Repeat([]byte{0}, 64)...)

func proofForm(t *testing.T, name, period string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	if period != "" {
		require.NoError(t, mw.WriteField("period", period))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "proof.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

// ---------------- auth ----------------

func TestVerifyPIN(t *testing.T) {
	r, _, _ := newTestRouter(t, false)

	w := do(r, http.MethodPost, "/auth/pin", "", strings.NewReader(`{"pin":"0000"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/pin", "", strings.NewReader(`{"pin":"2027"}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])
}

func TestAdminRoutesGated(t *testing.T) {
	r, _, _ := newTestRouter(t, false)
	body := `{"name":"Muadz","period":"2026-01"}`

	w := do(r, http.MethodPost, "/admin/toggle", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	member := sessionToken(t, r)
	w = do(r, http.MethodPost, "/admin/toggle", member, strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ---------------- toggle ----------------

func TestTogglePaidRoundTrip(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	token := adminToken(t, r)
	body := `{"name":"Muadz","period":"2026-01"}`

	w := do(r, http.MethodPost, "/admin/toggle", token, strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["paid"])

	ledger, err := cfg.Store.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "muadz-2026-01", ledger[0].ID)
	assert.Equal(t, int64(12_000), ledger[0].Amount)
	assert.NotEmpty(t, ledger[0].AdminID)

	// Second toggle returns existence to the original state.
	w = do(r, http.MethodPost, "/admin/toggle", token, strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["paid"])

	ledger, _ = cfg.Store.ListPayments(context.Background())
	assert.Empty(t, ledger)
}

func TestTogglePaidRejectsUnknownMember(t *testing.T) {
	r, _, _ := newTestRouter(t, false)
	token := adminToken(t, r)

	w := do(r, http.MethodPost, "/admin/toggle", token, strings.NewReader(`{"name":"Nobody"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------------- submit proof ----------------

func TestSubmitProofValidation(t *testing.T) {
	r, _, _ := newTestRouter(t, false)
	token := sessionToken(t, r)

	tests := []struct {
		desc   string
		name   string
		image  []byte
		errHas string
	}{
		{"missing name", "", pngMagic, "name is required"},
		{"unknown member", "Nobody", pngMagic, "unknown member"},
		{"missing image", "Muadz", nil, "no image uploaded"},
		{"wrong type", "Muadz", []byte("definitely not an image, just plain text padding here"), "invalid file type"},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			buf, ct := proofForm(t, tc.name, "2026-01", tc.image)
			w := do(r, http.MethodPost, "/payments/proof", token, buf, ct)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.errHas)
		})
	}
}

func TestSubmitProofManualReview(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	token := sessionToken(t, r)

	buf, ct := proofForm(t, "Muadz", "2026-01", pngMagic)
	w := do(r, http.MethodPost, "/payments/proof", token, buf, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pending", decode(t, w)["status"])

	pending, err := cfg.Store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Muadz", pending[0].Name)
	assert.Equal(t, "2026-01", pending[0].Period)
	assert.Contains(t, pending[0].ProofURL, "img.test")

	ledger, _ := cfg.Store.ListPayments(context.Background())
	assert.Empty(t, ledger, "manual review must not touch the ledger")
}

func TestSubmitProofAutoApprove(t *testing.T) {
	r, cfg, _ := newTestRouter(t, true)
	token := sessionToken(t, r)

	buf, ct := proofForm(t, "Muadz", "2026-01", pngMagic)
	w := do(r, http.MethodPost, "/payments/proof", token, buf, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "paid", decode(t, w)["status"])

	ledger, err := cfg.Store.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.NotEmpty(t, ledger[0].ProofURL)

	pending, _ := cfg.Store.ListPending(context.Background())
	assert.Empty(t, pending)
}

// ---------------- approve / reject ----------------

func seedPending(t *testing.T, cfg *config.Config) models.PendingPayment {
	t.Helper()
	p := models.PendingPayment{
		ID:         models.NewPaymentID(),
		Name:       "Muadz",
		Amount:     12_000,
		Period:     "2026-01",
		ProofURL:   "https://img.test/proofs/seeded.jpg",
		Status:     models.PendingStatus,
		UploadedAt: time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, cfg.Store.PutPending(context.Background(), p))
	return p
}

func TestApprovePromotesAndRemoves(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	token := adminToken(t, r)
	p := seedPending(t, cfg)

	w := do(r, http.MethodPost, "/admin/pending/"+p.ID+"/approve", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	ledger, err := cfg.Store.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, p.Name, ledger[0].Name)
	assert.Equal(t, p.Period, ledger[0].Period)
	assert.Equal(t, p.ProofURL, ledger[0].ProofURL)
	assert.Equal(t, p.UploadedAt, ledger[0].Date)

	pending, _ := cfg.Store.ListPending(context.Background())
	assert.Empty(t, pending, "approved submission must leave the queue")
}

func TestRejectDeletesWithoutPromotion(t *testing.T) {
	r, cfg, up := newTestRouter(t, false)
	token := adminToken(t, r)
	p := seedPending(t, cfg)

	w := do(r, http.MethodDelete, "/admin/pending/"+p.ID, token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	ledger, _ := cfg.Store.ListPayments(context.Background())
	assert.Empty(t, ledger)
	pending, _ := cfg.Store.ListPending(context.Background())
	assert.Empty(t, pending)
	assert.Contains(t, up.deleted, p.ProofURL, "hosted proof is destroyed on reject")
}

func TestRejectPromotedPayment(t *testing.T) {
	r, cfg, up := newTestRouter(t, false)
	token := adminToken(t, r)

	payment := models.Payment{
		ID:       models.NewPaymentID(),
		Name:     "Muadz",
		Amount:   12_000,
		Period:   "2026-01",
		Date:     time.Now(),
		ProofURL: "https://img.test/proofs/auto.jpg",
	}
	require.NoError(t, cfg.Store.PutPayment(context.Background(), payment))

	w := do(r, http.MethodDelete, "/admin/payments/"+payment.ID, token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	ledger, _ := cfg.Store.ListPayments(context.Background())
	assert.Empty(t, ledger)
	assert.Contains(t, up.deleted, payment.ProofURL)

	w = do(r, http.MethodDelete, "/admin/payments/"+payment.ID, token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---------------- read side ----------------

func seedLedger(t *testing.T, cfg *config.Config) {
	t.Helper()
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"Muadz", "Rendi Pratama"} {
		require.NoError(t, cfg.Store.PutPayment(context.Background(), models.Payment{
			ID:     models.PaymentSlug(name, models.Period{Year: 2026, Month: time.January}),
			Name:   name,
			Amount: 12_000,
			Period: "2026-01",
			Date:   base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, cfg.Store.PutPayment(context.Background(), models.Payment{
		ID:     models.PaymentSlug("Muadz", models.Period{Year: 2026, Month: time.February}),
		Name:   "Muadz",
		Amount: 12_000,
		Period: "2026-02",
		Date:   base.AddDate(0, 1, 0),
	}))
}

func TestListPaymentsFilterAndETag(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	seedLedger(t, cfg)

	w := do(r, http.MethodGet, "/payments", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 3)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))

	req := httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusNotModified, w2.Code)

	w = do(r, http.MethodGet, "/payments?period=2026-01", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var jan []models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jan))
	assert.Len(t, jan, 2)

	w = do(r, http.MethodGet, "/payments?period=nonsense", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPaymentsProofOnly(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	seedLedger(t, cfg)
	require.NoError(t, cfg.Store.PutPayment(context.Background(), models.Payment{
		ID:       models.NewPaymentID(),
		Name:     "Muadz",
		Amount:   12_000,
		Period:   "2026-03",
		Date:     time.Now(),
		ProofURL: "https://img.test/proofs/x.jpg",
	}))

	w := do(r, http.MethodGet, "/payments?proof=true", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var withProof []models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &withProof))
	require.Len(t, withProof, 1)
	assert.NotEmpty(t, withProof[0].ProofURL)
}

func TestGetSummary(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	seedLedger(t, cfg)

	w := do(r, http.MethodGet, "/summary", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)

	summary := out["summary"].(map[string]any)
	assert.Equal(t, float64(36_000), summary["total_collected"])
	assert.InDelta(t, 1.8, summary["percent_complete"], 0.001)

	period := out["period"].(map[string]any)
	assert.NotEmpty(t, period["key"])
	assert.NotEmpty(t, period["label"])
}

func TestGetMembersStatus(t *testing.T) {
	r, cfg, _ := newTestRouter(t, false)
	seedLedger(t, cfg)
	seedPending(t, cfg) // Muadz already paid in 2026-01; ledger wins

	w := do(r, http.MethodGet, "/members/status?period=2026-01", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)

	groups := out["groups"].(map[string]any)
	assert.Len(t, groups["paid"].([]any), 2)
	assert.Len(t, groups["pending"].([]any), 0, "ledger takes precedence over the queue")
	assert.Len(t, groups["unpaid"].([]any), 6)

	w = do(r, http.MethodGet, "/members/status?period=bogus", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
