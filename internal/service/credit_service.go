package service

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/store"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrPromoNotFound        = errors.New("invalid promo code")
	ErrPromoAlreadyRedeemed = errors.New("promo code already redeemed")
	ErrPromoExhausted       = errors.New("promo code has no uses left")
	ErrPromoExpired         = errors.New("promo code has expired")
)

// CreditState is a snapshot of one user's entitlement state.
type CreditState struct {
	Credits           int  `json:"credits"`
	IsPremium         bool `json:"isPremium"`
	ActiveDiscount    int  `json:"activeDiscount,omitempty"`
	ShowUpgradePrompt bool `json:"showUpgradePrompt"`
}

// RedeemResult describes what a successful promo redemption granted.
type RedeemResult struct {
	Code        string           `json:"code"`
	Type        domain.PromoType `json:"type"`
	Value       int              `json:"value"`
	CreditBonus int              `json:"creditBonus,omitempty"`
	NewBalance  int              `json:"newBalance"`
}

// CreditService is the entitlement ledger: it authorizes or denies
// credit-costed actions, maintains the balance and premium status, and
// handles promo redemption and direct purchase. The balance never goes
// negative; premium bypasses all costs unconditionally.
type CreditService interface {
	State(ctx context.Context, userID string) (CreditState, error)
	HasCreditFor(ctx context.Context, userID string, cost int) (bool, error)

	// SpendCredits deducts cost from the balance and reports whether the
	// caller's action may proceed. On insufficient funds it returns false
	// (not an error), flips the upgrade-prompt flag, and leaves the balance
	// unchanged. The deduction is optimistic: the in-memory balance updates
	// immediately and persistence happens in the background.
	SpendCredits(ctx context.Context, userID string, cost int, action string) (bool, error)

	// RefundCredits returns previously spent credits after an upstream
	// failure. Premium users never spent, so refunds are a no-op for them.
	RefundCredits(ctx context.Context, userID string, amount int, action string) error

	PurchaseCredits(ctx context.Context, userID string, amount int) (int, error)
	Subscribe(ctx context.Context, userID string) error
	RedeemPromo(ctx context.Context, userID, code string) (*RedeemResult, error)

	CloseUpgradePrompt(userID string)
	// DiscountedPrice applies the user's active discount percent to a price.
	DiscountedPrice(ctx context.Context, userID string, base float64) (float64, error)
	// DropSession discards cached ledger state so the next call reloads from
	// the store. Used after a full record reset.
	DropSession(userID string)
}

// creditSession is the in-memory ledger state for one user within this
// process. The displayed balance comes from here; the store catches up
// asynchronously after each spend.
type creditSession struct {
	credits        int
	isPremium      bool
	activeDiscount int
	showUpgrade    bool
}

type creditService struct {
	store   *store.Store
	promos  *store.PromoRegistry
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*creditSession

	// Tracks in-flight background persists so shutdown and tests can drain.
	persists sync.WaitGroup
}

// NewCreditService creates a new entitlement ledger over the given store and
// promo registry.
func NewCreditService(st *store.Store, promos *store.PromoRegistry, logger *zap.Logger) CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &creditService{
		store:    st,
		promos:   promos,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*creditSession),
	}
}

// session returns the cached ledger state for a user, loading it from the
// store on first touch. Callers must hold s.mu.
func (s *creditService) session(ctx context.Context, userID string) (*creditSession, error) {
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}

	sess := &creditSession{credits: domain.InitialCredits}
	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data != nil {
		sess.credits = data.Profile.Credits
		sess.isPremium = data.Profile.IsPremium
		sess.activeDiscount = data.Profile.ActiveDiscount
	}
	s.sessions[userID] = sess
	return sess, nil
}

func (s *creditService) State(ctx context.Context, userID string) (CreditState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return CreditState{}, err
	}
	return CreditState{
		Credits:           sess.credits,
		IsPremium:         sess.isPremium,
		ActiveDiscount:    sess.activeDiscount,
		ShowUpgradePrompt: sess.showUpgrade,
	}, nil
}

// HasCreditFor is a pure query with no side effect.
func (s *creditService) HasCreditFor(ctx context.Context, userID string, cost int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return false, err
	}
	if sess.isPremium {
		return true, nil
	}
	return sess.credits >= cost, nil
}

func (s *creditService) SpendCredits(ctx context.Context, userID string, cost int, action string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return false, err
	}

	if sess.isPremium {
		return true, nil
	}
	if sess.credits < cost {
		sess.showUpgrade = true
		return false, nil
	}

	sess.credits -= cost
	s.persistBalance(userID, sess.credits, domain.ActionSpendCredits, domain.CreditsPayload{Amount: -cost, Action: action})
	return true, nil
}

func (s *creditService) RefundCredits(ctx context.Context, userID string, amount int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return err
	}
	if sess.isPremium || amount <= 0 {
		return nil
	}

	sess.credits += amount
	s.persistBalance(userID, sess.credits, domain.ActionPurchaseCredits, domain.CreditsPayload{Amount: amount, Action: action})
	return nil
}

// persistBalance writes the new balance through the store in the background.
// Persistence failure is logged and swallowed: the session balance stays
// authoritative for the rest of the session (accepted best-effort model).
// Callers must hold s.mu.
func (s *creditService) persistBalance(userID string, balance int, action domain.ActionType, payload domain.CreditsPayload) {
	s.persists.Add(1)
	go func() {
		defer s.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := s.store.Commit(ctx, userID, action, payload, func(data *domain.UserData) {
			data.Profile.Credits = balance
		})
		if err != nil {
			s.logger.Error("failed to persist credit balance",
				zap.String("userID", userID), zap.Int("balance", balance), zap.Error(err))
		}
	}()
}

// PurchaseCredits unconditionally adds credits and persists the new balance.
// Payment verification lives with the external payment collaborator, not here.
func (s *creditService) PurchaseCredits(ctx context.Context, userID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return 0, err
	}

	sess.credits += amount
	balance := sess.credits
	_, err = s.store.Commit(ctx, userID, domain.ActionPurchaseCredits,
		domain.CreditsPayload{Amount: amount, Action: "purchase"},
		func(data *domain.UserData) {
			data.Profile.Credits = balance
		})
	if err != nil {
		// Balance already updated in-session; log and carry on.
		s.logger.Error("failed to persist purchase", zap.String("userID", userID), zap.Error(err))
	}
	return balance, nil
}

func (s *creditService) Subscribe(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return err
	}

	sess.isPremium = true
	sess.showUpgrade = false
	_, err = s.store.Commit(ctx, userID, domain.ActionSubscribe,
		domain.SubscribePayload{Source: "purchase"},
		func(data *domain.UserData) {
			data.Profile.IsPremium = true
		})
	if err != nil {
		s.logger.Error("failed to persist subscription", zap.String("userID", userID), zap.Error(err))
	}
	return nil
}

// RedeemPromo validates a code against the global registry and the user's own
// redemption history, then applies the grant. The user-record commit and the
// registry counter increment are two separate writes with no transaction
// across them; a crash in between is an accepted inconsistency.
func (s *creditService) RedeemPromo(ctx context.Context, userID, code string) (*RedeemResult, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return nil, ErrPromoNotFound
	}

	promo, err := s.promos.Get(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoNotFound
	}

	data, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data != nil && data.Profile.HasRedeemed(normalized) {
		return nil, ErrPromoAlreadyRedeemed
	}
	if promo.IsExhausted() {
		return nil, ErrPromoExhausted
	}
	if promo.IsExpired(s.now()) {
		return nil, ErrPromoExpired
	}

	s.mu.Lock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	result := &RedeemResult{Code: normalized, Type: promo.Type, Value: promo.Value}
	bonus := promo.CreditBonus()

	switch promo.Type {
	case domain.PromoPremium:
		sess.isPremium = true
		sess.showUpgrade = false
	case domain.PromoDiscount:
		sess.activeDiscount = promo.Value // last write wins
	default: // credits
		sess.credits += bonus
		result.CreditBonus = bonus
	}
	result.NewBalance = sess.credits
	s.mu.Unlock()

	_, err = s.store.Commit(ctx, userID, domain.ActionRedeemPromo,
		domain.PromoPayload{Code: normalized, Type: promo.Type},
		func(d *domain.UserData) {
			d.Profile.RedeemedCodes = append(d.Profile.RedeemedCodes, normalized)
			switch promo.Type {
			case domain.PromoPremium:
				d.Profile.IsPremium = true
			case domain.PromoDiscount:
				d.Profile.ActiveDiscount = promo.Value
			default:
				d.Profile.Credits += bonus
			}
		})
	if err != nil {
		return nil, err
	}

	if err := s.promos.IncrementUses(ctx, normalized); err != nil {
		// The user-side redemption already committed; only the global
		// counter is behind. Log it, do not fail the redemption.
		s.logger.Error("failed to increment promo uses",
			zap.String("code", normalized), zap.Error(err))
	}

	return result, nil
}

func (s *creditService) CloseUpgradePrompt(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.showUpgrade = false
	}
}

func (s *creditService) DiscountedPrice(ctx context.Context, userID string, base float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session(ctx, userID)
	if err != nil {
		return 0, err
	}
	if sess.activeDiscount <= 0 {
		return base, nil
	}
	return base * (1 - float64(sess.activeDiscount)/100), nil
}

func (s *creditService) DropSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
