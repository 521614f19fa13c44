package domain

import (
	"strings"
	"time"
)

// PromoType says what a promo code grants when redeemed.
type PromoType string

const (
	PromoCredits  PromoType = "credits"
	PromoPremium  PromoType = "premium"
	PromoDiscount PromoType = "discount"
)

// MagnitudeType says how a promo's value is interpreted.
type MagnitudeType string

const (
	MagnitudeFixed      MagnitudeType = "fixed"
	MagnitudePercentage MagnitudeType = "percentage"
)

// PromoCode is a global, founder-issued token redeemable once per user.
// Per-user idempotency is enforced via the profile's redeemedCodes set;
// this record only carries the global use counter and limits.
type PromoCode struct {
	Code          string        `bson:"code" json:"code"` // stored uppercased, matched case-insensitively
	Value         int           `bson:"value" json:"value"`
	Type          PromoType     `bson:"type" json:"type"`
	MagnitudeType MagnitudeType `bson:"magnitudeType" json:"magnitudeType"`
	Uses          int           `bson:"uses" json:"uses"`
	MaxUses       int           `bson:"maxUses,omitempty" json:"maxUses,omitempty"`       // 0 = unlimited
	ExpiryDate    string        `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"` // RFC 3339 date, empty = never
	CreatedAt     string        `bson:"createdAt" json:"createdAt"`
}

// NormalizeCode uppercases and trims a user-entered promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsExhausted reports whether the code's global use limit has been reached.
func (p *PromoCode) IsExhausted() bool {
	return p.MaxUses > 0 && p.Uses >= p.MaxUses
}

// IsExpired reports whether the code is past its expiry date at the given
// instant. Unparseable expiry dates count as expired: a founder typo should
// disable a code, not leave it open forever.
func (p *PromoCode) IsExpired(now time.Time) bool {
	if p.ExpiryDate == "" {
		return false
	}
	expiry, err := time.Parse(time.RFC3339, p.ExpiryDate)
	if err != nil {
		if expiry, err = time.Parse("2006-01-02", p.ExpiryDate); err != nil {
			return true
		}
		expiry = expiry.Add(24 * time.Hour) // expires at end of day
	}
	return now.After(expiry)
}

// CreditBonus returns the credit amount this code grants: the raw value for
// fixed codes, or value% of the initial grant for percentage codes.
func (p *PromoCode) CreditBonus() int {
	if p.MagnitudeType == MagnitudePercentage {
		return InitialCredits * p.Value / 100
	}
	return p.Value
}
