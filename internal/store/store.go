package store

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Key layout in the backing key-value storage. The prefix is versioned so a
// future record-shape migration can run old and new records side by side.
const (
	storagePrefix  = "physique_v2_"
	globalPromoKey = "physique_v2_global_promos"
)

// StorageKey returns the key under which a user's record is persisted.
func StorageKey(userID string) string {
	return storagePrefix + userID
}

// Store is the versioned profile store: the single source of truth for one
// user's full application state, with an append-only audit history. Every
// mutation goes through Commit, which bumps the record version and appends
// exactly one history entry.
//
// Commits are load-modify-save cycles with no cross-caller locking. Two
// concurrent commits for the same user can interleave and the second save
// wins; that is an accepted risk for this single-session client model.
type Store struct {
	kv     repository.KeyValue
	logger *zap.Logger
	now    func() time.Time // injectable for tests
}

// NewStore creates a Store over the given key-value storage.
func NewStore(kv repository.KeyValue, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger, now: time.Now}
}

// Load fetches and deserializes a user's record. It returns (nil, nil) when
// the user has no record yet AND when the stored payload is corrupt: a single
// bad record must degrade to "no prior state", never crash the caller.
func (s *Store) Load(ctx context.Context, userID string) (*domain.UserData, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load user data: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var data domain.UserData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Error("corrupt user record, treating as absent",
			zap.String("userID", userID), zap.Error(err))
		return nil, nil
	}
	return &data, nil
}

// Commit is the only sanctioned write path into a user record. It loads the
// existing record (or creates a fresh default one), applies the mutation in
// place, appends one ActionLog entry with a deep-cloned payload snapshot,
// increments the version, stamps lastSynced, and persists the whole record.
func (s *Store) Commit(
	ctx context.Context,
	userID string,
	actionType domain.ActionType,
	payload any,
	mutate func(data *domain.UserData),
) (*domain.UserData, error) {
	data, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = domain.NewUserData(userID, s.now())
	}

	if mutate != nil {
		mutate(data)
	}

	// The payload is snapshotted through JSON so later mutations of the
	// caller's value cannot rewrite history.
	var snapshot json.RawMessage
	if payload != nil {
		snapshot, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("commit %s: snapshot payload: %w", actionType, err)
		}
	}

	data.History = append(data.History, domain.ActionLog{
		ID:        uuid.NewString(),
		Timestamp: s.now().UnixMilli(),
		Type:      actionType,
		Payload:   snapshot,
	})
	data.Version++
	data.LastSynced = s.now().UTC().Format(time.RFC3339)

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("commit %s: serialize record: %w", actionType, err)
	}
	if err := s.kv.Set(ctx, StorageKey(userID), string(raw)); err != nil {
		s.logger.Error("failed to persist commit",
			zap.String("userID", userID), zap.String("action", string(actionType)), zap.Error(err))
		return nil, fmt.Errorf("commit %s: %w", actionType, err)
	}

	return data, nil
}

// Clear deletes a user's entire record irreversibly. No soft delete; the
// history goes with it.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.kv.Remove(ctx, StorageKey(userID)); err != nil {
		s.logger.Error("failed to clear user record", zap.String("userID", userID), zap.Error(err))
		return err
	}
	return nil
}

// UserIDs enumerates every user id that has a stored record. Founder
// dashboard scanning only.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, storagePrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == globalPromoKey {
			continue
		}
		ids = append(ids, k[len(storagePrefix):])
	}
	return ids, nil
}
