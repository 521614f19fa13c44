package service

import (
	"context"
	"testing"

	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*creditService, *store.Store, *store.PromoRegistry) {
	t.Helper()
	kv := store.NewMemoryKeyValue()
	st := store.NewStore(kv, nil)
	reg := store.NewPromoRegistry(kv, nil)
	svc := NewCreditService(st, reg, nil).(*creditService)
	return svc, st, reg
}

// drain waits for all in-flight background balance persists.
func drain(svc *creditService) {
	svc.persists.Wait()
}

func TestSpendCreditsDeductsFromFreshBalance(t *testing.T) {
	svc, st, _ := newTestLedger(t)
	ctx := context.Background()

	ok, err := svc.SpendCredits(ctx, "u1", 25, "Generate Plan")
	require.NoError(t, err)
	assert.True(t, ok)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 75, state.Credits)
	assert.False(t, state.ShowUpgradePrompt)

	drain(svc)
	data, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 75, data.Profile.Credits)

	// The persist is one commit with a SPEND_CREDITS audit entry.
	last := data.History[len(data.History)-1]
	assert.Equal(t, domain.ActionSpendCredits, last.Type)
}

func TestSpendCreditsInsufficientFundsDeniesAndFlagsPrompt(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	ok, err := svc.SpendCredits(ctx, "u1", 25, "Generate Plan")
	require.NoError(t, err)
	require.True(t, ok)

	// 75 left; a 90-credit action must be denied without touching the balance.
	ok, err = svc.SpendCredits(ctx, "u1", 90, "Big Action")
	require.NoError(t, err)
	assert.False(t, ok)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 75, state.Credits)
	assert.True(t, state.ShowUpgradePrompt)

	svc.CloseUpgradePrompt("u1")
	state, err = svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.ShowUpgradePrompt)
}

func TestBalanceNeverGoesNegative(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.SpendCredits(ctx, "u1", 30, "action")
		require.NoError(t, err)
	}

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, state.Credits, 0)
	assert.Equal(t, 10, state.Credits) // 100 - 3*30; the fourth spend onward is denied
}

func TestPremiumBypassesAllCosts(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "u1"))

	ok, err := svc.SpendCredits(ctx, "u1", 1000000, "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.IsPremium)
	assert.Equal(t, domain.InitialCredits, state.Credits) // untouched

	has, err := svc.HasCreditFor(ctx, "u1", 1000000)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRefundCreditsRestoresBalance(t *testing.T) {
	svc, st, _ := newTestLedger(t)
	ctx := context.Background()

	ok, err := svc.SpendCredits(ctx, "u1", 25, "Generate Plan")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.RefundCredits(ctx, "u1", 25, "Generate Plan refund"))

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits, state.Credits)

	drain(svc)
	data, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits, data.Profile.Credits)
}

func TestRefundIsNoOpForPremium(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "u1"))
	require.NoError(t, svc.RefundCredits(ctx, "u1", 25, "refund"))

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits, state.Credits)
}

func TestPurchaseCreditsPersistsSynchronously(t *testing.T) {
	svc, st, _ := newTestLedger(t)
	ctx := context.Background()

	balance, err := svc.PurchaseCredits(ctx, "u1", 200)
	require.NoError(t, err)
	assert.Equal(t, 300, balance)

	data, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 300, data.Profile.Credits)
	last := data.History[len(data.History)-1]
	assert.Equal(t, domain.ActionPurchaseCredits, last.Type)
}

func TestSessionLoadsExistingBalance(t *testing.T) {
	svc, st, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, func(d *domain.UserData) {
		d.Profile.Credits = 7
	})
	require.NoError(t, err)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, state.Credits)
}

func TestDropSessionReloadsFromStore(t *testing.T) {
	svc, st, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.SpendCredits(ctx, "u1", 25, "action")
	require.NoError(t, err)
	drain(svc)

	// Simulate a full reset: record gone, session dropped.
	require.NoError(t, st.Clear(ctx, "u1"))
	svc.DropSession("u1")

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits, state.Credits)
}

func TestRedeemCreditsPromo(t *testing.T) {
	svc, st, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{
		Code: "WELCOME50", Value: 50, Type: domain.PromoCredits, MagnitudeType: domain.MagnitudeFixed,
	}))

	result, err := svc.RedeemPromo(ctx, "u1", "  welcome50 ")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME50", result.Code)
	assert.Equal(t, 50, result.CreditBonus)
	assert.Equal(t, 150, result.NewBalance)

	data, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, data.Profile.RedeemedCodes, "WELCOME50")
	assert.Equal(t, 150, data.Profile.Credits)

	promo, err := reg.Get(ctx, "WELCOME50")
	require.NoError(t, err)
	assert.Equal(t, 1, promo.Uses)
}

func TestRedeemPercentagePromo(t *testing.T) {
	svc, _, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{
		Code: "BONUS100", Value: 100, Type: domain.PromoCredits, MagnitudeType: domain.MagnitudePercentage, MaxUses: 1,
	}))

	result, err := svc.RedeemPromo(ctx, "u1", "BONUS100")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits, result.CreditBonus)
	assert.Equal(t, 2*domain.InitialCredits, result.NewBalance)
}

func TestRedeemPromoRejectsDoubleRedemption(t *testing.T) {
	svc, _, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "ONCE", Value: 10, Type: domain.PromoCredits}))

	_, err := svc.RedeemPromo(ctx, "u1", "ONCE")
	require.NoError(t, err)

	_, err = svc.RedeemPromo(ctx, "u1", "once")
	assert.ErrorIs(t, err, ErrPromoAlreadyRedeemed)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialCredits+10, state.Credits)
}

func TestRedeemPromoExhaustedForSecondUser(t *testing.T) {
	svc, _, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{
		Code: "BONUS100", Value: 100, Type: domain.PromoCredits, MagnitudeType: domain.MagnitudePercentage, MaxUses: 1,
	}))

	_, err := svc.RedeemPromo(ctx, "u1", "BONUS100")
	require.NoError(t, err)

	_, err = svc.RedeemPromo(ctx, "u2", "BONUS100")
	assert.ErrorIs(t, err, ErrPromoExhausted)
}

func TestRedeemPromoExpired(t *testing.T) {
	svc, _, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{
		Code: "OLD", Value: 10, Type: domain.PromoCredits, ExpiryDate: "2020-01-01",
	}))

	_, err := svc.RedeemPromo(ctx, "u1", "OLD")
	assert.ErrorIs(t, err, ErrPromoExpired)
}

func TestRedeemPromoUnknownCode(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, err := svc.RedeemPromo(context.Background(), "u1", "NOPE")
	assert.ErrorIs(t, err, ErrPromoNotFound)

	_, err = svc.RedeemPromo(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, ErrPromoNotFound)
}

func TestRedeemPremiumPromo(t *testing.T) {
	svc, st, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "VIP", Value: 1, Type: domain.PromoPremium}))

	result, err := svc.RedeemPromo(ctx, "u1", "VIP")
	require.NoError(t, err)
	assert.Equal(t, domain.PromoPremium, result.Type)

	state, err := svc.State(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.IsPremium)

	data, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, data.Profile.IsPremium)
}

func TestDiscountPromoAppliesToPrice(t *testing.T) {
	svc, _, reg := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "SAVE20", Value: 20, Type: domain.PromoDiscount}))

	_, err := svc.RedeemPromo(ctx, "u1", "SAVE20")
	require.NoError(t, err)

	price, err := svc.DiscountedPrice(ctx, "u1", 10)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, price, 1e-9)

	// No discount, full price.
	price, err = svc.DiscountedPrice(ctx, "u2", 10)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, price, 1e-9)
}
