// Package reconcile derives per-member payment status and aggregate
// figures from a snapshot of the ledger and the pending queue. It has
// no side effects and does no I/O; callers re-run it on every snapshot
// change instead of patching state.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lastmoment/tripfund-api/models"
)

// Status of one member for one period.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusUnpaid  = "unpaid"
)

// MemberStatus is the derived view of one roster member for a period.
type MemberStatus struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
	// Detail is the paid-at timestamp for paid, the uploaded-at
	// timestamp for pending, and empty for unpaid (the UI falls back
	// to the role label).
	Detail   *time.Time `json:"detail,omitempty"`
	ProofURL string     `json:"proof_url,omitempty"`
}

// DeriveMemberStatus computes one member's status for a period. The
// ledger takes precedence over the queue; absence of both is a normal
// outcome, not an error. Duplicate matches pick the first in snapshot
// order.
func DeriveMemberStatus(member models.Member, period models.Period, ledger []models.Payment, pending []models.PendingPayment) MemberStatus {
	key := period.Key()

	for _, p := range ledger {
		if p.Name == member.Name && p.Period == key {
			d := p.Date
			return MemberStatus{
				Name:     member.Name,
				Role:     member.Role,
				Status:   StatusPaid,
				Detail:   &d,
				ProofURL: p.ProofURL,
			}
		}
	}

	for _, p := range pending {
		if p.Name == member.Name && p.Period == key && p.Status == models.PendingStatus {
			d := p.UploadedAt
			return MemberStatus{
				Name:     member.Name,
				Role:     member.Role,
				Status:   StatusPending,
				Detail:   &d,
				ProofURL: p.ProofURL,
			}
		}
	}

	return MemberStatus{Name: member.Name, Role: member.Role, Status: StatusUnpaid}
}

// Groups partitions the roster by status, preserving roster order
// within each group so the member list stays visually stable.
type Groups struct {
	Paid    []MemberStatus `json:"paid"`
	Pending []MemberStatus `json:"pending"`
	Unpaid  []MemberStatus `json:"unpaid"`
}

// GroupByStatus applies DeriveMemberStatus to every roster member.
func GroupByStatus(roster []models.Member, period models.Period, ledger []models.Payment, pending []models.PendingPayment) Groups {
	g := Groups{
		Paid:    []MemberStatus{},
		Pending: []MemberStatus{},
		Unpaid:  []MemberStatus{},
	}
	for _, m := range roster {
		st := DeriveMemberStatus(m, period, ledger, pending)
		switch st.Status {
		case StatusPaid:
			g.Paid = append(g.Paid, st)
		case StatusPending:
			g.Pending = append(g.Pending, st)
		default:
			g.Unpaid = append(g.Unpaid, st)
		}
	}
	return g
}

// Summary is the aggregate view over the whole ledger.
type Summary struct {
	TotalCollected  int64   `json:"total_collected"`
	TargetSaldo     int64   `json:"target_saldo"`
	PercentComplete float64 `json:"percent_complete"`
}

// Aggregate sums the full ledger (duplicates and orphans included, by
// design) and computes the clamped progress percentage. The total is
// unbounded by the target; the percentage never leaves [0, 100].
func Aggregate(ledger []models.Payment, targetSaldo int64) Summary {
	total := decimal.Zero
	for _, p := range ledger {
		total = total.Add(decimal.NewFromInt(p.Amount))
	}

	pct := decimal.Zero
	if targetSaldo > 0 {
		pct = total.Div(decimal.NewFromInt(targetSaldo)).Mul(decimal.NewFromInt(100))
		hundred := decimal.NewFromInt(100)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		if pct.IsNegative() {
			pct = decimal.Zero
		}
	}

	f, _ := pct.Round(2).Float64()
	return Summary{
		TotalCollected:  total.IntPart(),
		TargetSaldo:     targetSaldo,
		PercentComplete: f,
	}
}

// FilterByPeriod returns the ledger subset for one period key, or the
// whole ledger for the models.PeriodAll sentinel. Matching is exact on
// the canonical key.
func FilterByPeriod(ledger []models.Payment, selector string) []models.Payment {
	if selector == models.PeriodAll {
		return ledger
	}
	out := []models.Payment{}
	for _, p := range ledger {
		if p.Period == selector {
			out = append(out, p)
		}
	}
	return out
}

// Countdown is the time remaining until the trip date.
type Countdown struct {
	Days   int `json:"days"`
	Months int `json:"months"`
}

// CountdownTo floors at zero once the trip date has passed.
func CountdownTo(now, tripDate time.Time) Countdown {
	days := int(tripDate.Sub(now).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return Countdown{Days: days, Months: days / 30}
}
