package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is one confirmed contribution in the ledger.
//
// The _id is a string rather than an ObjectID because the admin toggle
// path uses a deterministic slug (see PaymentSlug) so that toggling the
// same member/period twice collides instead of duplicating; the
// approve and auto-approve paths use a generated id.
type Payment struct {
	ID       string    `bson:"_id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	Amount   int64     `bson:"amount" json:"amount"`
	Period   string    `bson:"period" json:"period"` // canonical key, e.g. "2026-01"
	Date     time.Time `bson:"date" json:"date"`
	ProofURL string    `bson:"proof_url,omitempty" json:"proof_url,omitempty"`
	AdminID  string    `bson:"admin_id,omitempty" json:"admin_id,omitempty"`
}

// PendingStatus is the only status a submission carries while resident
// in the queue; resolution removes the document instead of marking it.
const PendingStatus = "pending"

// PendingPayment is one uploaded proof awaiting admin review.
type PendingPayment struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Amount     int64     `bson:"amount" json:"amount"`
	Period     string    `bson:"period" json:"period"`
	ProofURL   string    `bson:"proof_url" json:"proof_url"`
	Status     string    `bson:"status" json:"status"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
	SessionID  string    `bson:"session_id,omitempty" json:"session_id,omitempty"`
}

// PaymentSlug builds the deterministic ledger id for the toggle path,
// e.g. "afif-ramadhan-2026-01".
func PaymentSlug(name string, period Period) string {
	s := strings.ToLower(name + "-" + period.Key())
	return strings.Join(strings.Fields(s), "-")
}

// NewPaymentID returns a generated id for the approve/auto-approve paths.
func NewPaymentID() string {
	return primitive.NewObjectID().Hex()
}
