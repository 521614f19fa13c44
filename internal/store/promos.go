package store

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/repository"
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// PromoRegistry manages the global promo catalog: a single shared record,
// not scoped to any user, editable by founders and readable by everyone.
// Mutations are read-modify-write on one key with no locking; the last
// writer wins, which is acceptable for a founder-curated catalog.
type PromoRegistry struct {
	kv     repository.KeyValue
	logger *zap.Logger
	now    func() time.Time
}

// NewPromoRegistry creates a registry over the given key-value storage.
func NewPromoRegistry(kv repository.KeyValue, logger *zap.Logger) *PromoRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoRegistry{kv: kv, logger: logger, now: time.Now}
}

// List returns every promo in the catalog. A corrupt catalog degrades to
// empty rather than failing redemption for everyone.
func (r *PromoRegistry) List(ctx context.Context) ([]domain.PromoCode, error) {
	raw, ok, err := r.kv.Get(ctx, globalPromoKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.PromoCode{}, nil
	}

	var promos []domain.PromoCode
	if err := json.Unmarshal([]byte(raw), &promos); err != nil {
		r.logger.Error("corrupt promo catalog, treating as empty", zap.Error(err))
		return []domain.PromoCode{}, nil
	}
	return promos, nil
}

// Get looks a promo up by code, case-insensitively. Returns nil when absent.
func (r *PromoRegistry) Get(ctx context.Context, code string) (*domain.PromoCode, error) {
	promos, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	normalized := domain.NormalizeCode(code)
	for i := range promos {
		if domain.NormalizeCode(promos[i].Code) == normalized {
			return &promos[i], nil
		}
	}
	return nil, nil
}

// Add inserts a promo or replaces an existing one with the same code. The
// code is stored uppercased and the use counter starts at zero.
func (r *PromoRegistry) Add(ctx context.Context, promo domain.PromoCode) error {
	promos, err := r.List(ctx)
	if err != nil {
		return err
	}

	promo.Code = domain.NormalizeCode(promo.Code)
	promo.Uses = 0
	promo.CreatedAt = r.now().UTC().Format(time.RFC3339)

	replaced := false
	for i := range promos {
		if promos[i].Code == promo.Code {
			promos[i] = promo
			replaced = true
			break
		}
	}
	if !replaced {
		promos = append(promos, promo)
	}
	return r.save(ctx, promos)
}

// Remove deletes a promo from the catalog. Removing an absent code is a no-op.
func (r *PromoRegistry) Remove(ctx context.Context, code string) error {
	promos, err := r.List(ctx)
	if err != nil {
		return err
	}
	normalized := domain.NormalizeCode(code)
	filtered := promos[:0]
	for _, p := range promos {
		if p.Code != normalized {
			filtered = append(filtered, p)
		}
	}
	return r.save(ctx, filtered)
}

// IncrementUses bumps the global use counter for a code. Incrementing an
// absent code is a no-op; the user-side redemption already happened and
// there is nothing to count against.
func (r *PromoRegistry) IncrementUses(ctx context.Context, code string) error {
	promos, err := r.List(ctx)
	if err != nil {
		return err
	}
	normalized := domain.NormalizeCode(code)
	for i := range promos {
		if promos[i].Code == normalized {
			promos[i].Uses++
			return r.save(ctx, promos)
		}
	}
	return nil
}

func (r *PromoRegistry) save(ctx context.Context, promos []domain.PromoCode) error {
	raw, err := json.Marshal(promos)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, globalPromoKey, string(raw))
}
