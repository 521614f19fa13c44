package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE20", NormalizeCode("  save20 "))
	assert.Equal(t, "BONUS100", NormalizeCode("bonus100"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestPromoIsExhausted(t *testing.T) {
	unlimited := PromoCode{MaxUses: 0, Uses: 9999}
	assert.False(t, unlimited.IsExhausted())

	limited := PromoCode{MaxUses: 1, Uses: 0}
	assert.False(t, limited.IsExhausted())

	limited.Uses = 1
	assert.True(t, limited.IsExhausted())
}

func TestPromoIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expiry  string
		expired bool
	}{
		{"no expiry", "", false},
		{"future rfc3339", "2025-12-31T23:59:59Z", false},
		{"past rfc3339", "2025-01-01T00:00:00Z", true},
		{"date only, today counts as valid", "2025-06-15", false},
		{"date only, yesterday expired", "2025-06-13", true},
		{"garbage date disables the code", "next tuesday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PromoCode{ExpiryDate: tt.expiry}
			assert.Equal(t, tt.expired, p.IsExpired(now))
		})
	}
}

func TestPromoCreditBonus(t *testing.T) {
	fixed := PromoCode{Value: 50, MagnitudeType: MagnitudeFixed}
	assert.Equal(t, 50, fixed.CreditBonus())

	// Percentage codes grant a share of the initial credit allowance.
	percentage := PromoCode{Value: 100, MagnitudeType: MagnitudePercentage}
	assert.Equal(t, InitialCredits, percentage.CreditBonus())

	half := PromoCode{Value: 50, MagnitudeType: MagnitudePercentage}
	assert.Equal(t, InitialCredits/2, half.CreditBonus())
}
