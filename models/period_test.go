package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodKeyAndLabel(t *testing.T) {
	p := Period{Year: 2026, Month: time.January}
	assert.Equal(t, "2026-01", p.Key())
	assert.Equal(t, "Januari 2026", p.Label())

	des := Period{Year: 2027, Month: time.December}
	assert.Equal(t, "2027-12", des.Key())
	assert.Equal(t, "Desember 2027", des.Label())
}

func TestParsePeriodRoundTrip(t *testing.T) {
	for _, key := range []string{"2026-01", "2026-12", "2099-06"} {
		p, err := ParsePeriod(key)
		require.NoError(t, err)
		assert.Equal(t, key, p.Key())
	}
}

func TestParsePeriodRejectsJunk(t *testing.T) {
	for _, s := range []string{"", "all", "Januari 2026", "2026", "2026-13", "2026-00", "26-01", "abcd-ef"} {
		_, err := ParsePeriod(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestPeriodOf(t *testing.T) {
	p := PeriodOf(time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, Period{Year: 2026, Month: time.March}, p)
}

func TestPaymentSlug(t *testing.T) {
	p := Period{Year: 2026, Month: time.January}
	assert.Equal(t, "afif-ramadhan-2026-01", PaymentSlug("Afif Ramadhan", p))
	// Deterministic: the same inputs always collide on the same id.
	assert.Equal(t, PaymentSlug("Muadz", p), PaymentSlug("Muadz", p))
}

func TestFindMember(t *testing.T) {
	m, ok := FindMember(DefaultRoster, "Muadz")
	require.True(t, ok)
	assert.Equal(t, "Muadz", m.Name)

	_, ok = FindMember(DefaultRoster, "Nobody")
	assert.False(t, ok)
}
