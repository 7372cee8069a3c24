package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/storage"
)

// persistedState is the on-disk shape of the persisted projection. Field
// order is fixed so identical state always encodes to identical bytes.
type persistedState struct {
	User     *shop.User      `json:"user"`
	Cart     []shop.CartItem `json:"cart"`
	IsAdmin  bool            `json:"isAdmin"`
	LastSync time.Time       `json:"lastSync"`
}

// Persist writes the persisted projection to storage. Failures are logged and
// swallowed; in-memory state stays authoritative.
func (s *Store) Persist() {
	if s.storage == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := s.encodePersisted()
	if err != nil {
		s.log().Error("encode persisted state failed", "error", err)
		return
	}
	ctx, cancel := persistContext()
	defer cancel()
	if err := s.storage.Set(ctx, storage.KeyAppState, string(data)); err != nil {
		s.log().Error("persist state failed", "error", err)
	}
}

func (s *Store) encodePersisted() ([]byte, error) {
	s.mu.RLock()
	p := persistedState{
		User:     s.state.User,
		Cart:     s.state.Cart,
		IsAdmin:  s.state.IsAdmin,
		LastSync: s.state.LastSync,
	}
	data, err := json.Marshal(p)
	s.mu.RUnlock()
	return data, err
}

// Hydrate overlays persisted values onto the current state. Keys missing from
// storage keep their current value, so calling Hydrate twice is harmless.
// Missing or corrupt storage is logged and leaves state untouched. Hydrate
// does not notify listeners; it runs before anything subscribes.
func (s *Store) Hydrate() {
	if s.storage == nil {
		return
	}
	ctx, cancel := persistContext()
	defer cancel()

	raw, err := s.storage.Get(ctx, storage.KeyAppState)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log().Warn("load persisted state failed", "error", err)
		}
		return
	}
	if err := s.overlay([]byte(raw)); err != nil {
		s.log().Warn("persisted state is corrupt; ignoring", "error", err)
	}
}

func (s *Store) overlay(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode persisted state: %w", err)
	}

	// Decode everything before touching state so a bad field leaves state
	// unchanged.
	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode persisted state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := fields[string(KeyUser)]; ok {
		s.state.User = p.User
	}
	if _, ok := fields[string(KeyCart)]; ok {
		s.state.Cart = p.Cart
	}
	if _, ok := fields[string(KeyIsAdmin)]; ok {
		s.state.IsAdmin = p.IsAdmin
	}
	if _, ok := fields[string(KeyLastSync)]; ok {
		s.state.LastSync = p.LastSync
	}
	return nil
}
