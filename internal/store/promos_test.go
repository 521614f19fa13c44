package store

import (
	"context"
	"testing"

	"ascend/physique-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*PromoRegistry, *MemoryKeyValue) {
	t.Helper()
	kv := NewMemoryKeyValue()
	return NewPromoRegistry(kv, nil), kv
}

func TestPromoRegistryAddAndGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	err := reg.Add(ctx, domain.PromoCode{
		Code: "save20", Value: 20, Type: domain.PromoDiscount, MagnitudeType: domain.MagnitudeFixed,
	})
	require.NoError(t, err)

	// Lookup is case-insensitive; storage is uppercased.
	promo, err := reg.Get(ctx, "SaVe20")
	require.NoError(t, err)
	require.NotNil(t, promo)
	assert.Equal(t, "SAVE20", promo.Code)
	assert.Equal(t, 20, promo.Value)
	assert.Equal(t, 0, promo.Uses)
	assert.NotEmpty(t, promo.CreatedAt)

	missing, err := reg.Get(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPromoRegistryAddReplacesAndResetsUses(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "BONUS", Value: 50, Type: domain.PromoCredits}))
	require.NoError(t, reg.IncrementUses(ctx, "BONUS"))

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "bonus", Value: 75, Type: domain.PromoCredits}))

	promos, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, 75, promos[0].Value)
	assert.Equal(t, 0, promos[0].Uses)
}

func TestPromoRegistryRemove(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "A", Value: 1, Type: domain.PromoCredits}))
	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "B", Value: 2, Type: domain.PromoCredits}))

	require.NoError(t, reg.Remove(ctx, "a"))

	promos, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "B", promos[0].Code)

	// Removing an absent code is a no-op.
	require.NoError(t, reg.Remove(ctx, "GONE"))
}

func TestPromoRegistryIncrementUses(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, domain.PromoCode{Code: "LIMITED", Value: 10, Type: domain.PromoCredits, MaxUses: 2}))

	require.NoError(t, reg.IncrementUses(ctx, "limited"))
	require.NoError(t, reg.IncrementUses(ctx, "LIMITED"))

	promo, err := reg.Get(ctx, "LIMITED")
	require.NoError(t, err)
	require.NotNil(t, promo)
	assert.Equal(t, 2, promo.Uses)
	assert.True(t, promo.IsExhausted())

	// Absent codes are a no-op, not an error.
	require.NoError(t, reg.IncrementUses(ctx, "GONE"))
}

func TestPromoRegistryCorruptCatalogDegradesToEmpty(t *testing.T) {
	reg, kv := newTestRegistry(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, globalPromoKey, "{{{"))

	promos, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, promos)
}
