package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/five82/stockroom/internal/events"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/storage"
)

// Key names a field of State. The set is closed; Set rejects anything else.
type Key string

const (
	KeyUser      Key = "user"
	KeyCart      Key = "cart"
	KeyIsAdmin   Key = "isAdmin"
	KeyProducts  Key = "products"
	KeyOrders    Key = "orders"
	KeyInventory Key = "inventory"
	KeyLastSync  Key = "lastSync"
)

// Keys lists every valid key in declaration order.
var Keys = []Key{KeyUser, KeyCart, KeyIsAdmin, KeyProducts, KeyOrders, KeyInventory, KeyLastSync}

// persistedKeys is the projection written to durable storage.
var persistedKeys = map[Key]bool{
	KeyUser:     true,
	KeyCart:     true,
	KeyIsAdmin:  true,
	KeyLastSync: true,
}

var (
	ErrUnknownKey = errors.New("unknown state key")
	ErrWrongType  = errors.New("wrong value type for state key")
)

const persistTimeout = 5 * time.Second

// State is the full application state. Values returned by Store are copies.
type State struct {
	User      *shop.User
	Cart      []shop.CartItem
	IsAdmin   bool
	Products  []shop.Product
	Orders    []shop.Order
	Inventory []shop.InventoryItem
	LastSync  time.Time
}

// Change is the payload published on events.StateChanged and the per-key
// channel.
type Change struct {
	Key Key
	New any
	Old any
}

// Listener observes every Set.
type Listener func(key Key, newValue, oldValue any)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Options configure a Store.
type Options struct {
	// Bus receives state:changed and state:<key> notifications when set.
	Bus events.Publisher
	// Storage holds the persisted projection; nil keeps state in memory.
	Storage storage.Storage
	Logger  *slog.Logger
}

// Store is the single owner of application state. Set is the only mutation
// path; notifications are delivered after the lock is released so listeners
// may call back into the store, including Set on the same key.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners []listenerEntry
	nextID    uint64

	persistMu sync.Mutex
	bus       events.Publisher
	storage   storage.Storage
	logger    *slog.Logger
}

// NewStore returns a Store holding default values.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{bus: opts.Bus, storage: opts.Storage, logger: logger}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key Key) (any, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return coerce(key, s.state.field(key))
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Set replaces the value under key, persists when key belongs to the
// persisted projection, and notifies listeners and the bus.
func (s *Store) Set(key Key, value any) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	next, err := coerce(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.state.field(key)
	s.state.assign(key, next)
	s.mu.Unlock()

	// Listeners get their own copy so they cannot reach the stored slice.
	published, _ := coerce(key, next)

	if persistedKeys[key] {
		s.Persist()
	}
	s.notify(key, published, old)
	return nil
}

// Subscribe registers a listener and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(slices.Clone(s.listeners), func(e listenerEntry) bool {
			return e.id == id
		})
	}
}

func (s *Store) notify(key Key, newValue, oldValue any) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		s.invoke(l.fn, key, newValue, oldValue)
	}
	if s.bus != nil {
		change := Change{Key: key, New: newValue, Old: oldValue}
		s.bus.Publish(events.StateChanged, change)
		s.bus.Publish(events.StateKey(string(key)), change)
	}
}

func (s *Store) invoke(fn Listener, key Key, newValue, oldValue any) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("state listener panicked", "key", key, "panic", r)
		}
	}()
	fn(key, newValue, oldValue)
}

// Reset restores the session keys (user, cart, isAdmin) to their defaults and
// persists. Cached collections are left alone.
func (s *Store) Reset() {
	s.mu.Lock()
	olds := map[Key]any{
		KeyUser:    s.state.field(KeyUser),
		KeyCart:    s.state.field(KeyCart),
		KeyIsAdmin: s.state.field(KeyIsAdmin),
	}
	s.state.User = nil
	s.state.Cart = nil
	s.state.IsAdmin = false
	s.mu.Unlock()

	s.Persist()
	for _, key := range []Key{KeyUser, KeyCart, KeyIsAdmin} {
		next, _ := coerce(key, nil)
		s.notify(key, next, olds[key])
	}
}

func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func validKey(key Key) bool {
	return slices.Contains(Keys, key)
}

// coerce checks value against the key's type. Values and pointers are both
// accepted for the user; nil resets a key to its zero value.
func coerce(key Key, value any) (any, error) {
	wrong := func() error {
		return fmt.Errorf("%w: %s cannot hold %T", ErrWrongType, key, value)
	}
	switch key {
	case KeyUser:
		switch v := value.(type) {
		case nil:
			return (*shop.User)(nil), nil
		case *shop.User:
			if v == nil {
				return (*shop.User)(nil), nil
			}
			u := *v
			return &u, nil
		case shop.User:
			return &v, nil
		}
	case KeyCart:
		switch v := value.(type) {
		case nil:
			return []shop.CartItem(nil), nil
		case []shop.CartItem:
			return slices.Clone(v), nil
		}
	case KeyIsAdmin:
		switch v := value.(type) {
		case nil:
			return false, nil
		case bool:
			return v, nil
		}
	case KeyProducts:
		switch v := value.(type) {
		case nil:
			return []shop.Product(nil), nil
		case []shop.Product:
			return slices.Clone(v), nil
		}
	case KeyOrders:
		switch v := value.(type) {
		case nil:
			return []shop.Order(nil), nil
		case []shop.Order:
			return cloneOrders(v), nil
		}
	case KeyInventory:
		switch v := value.(type) {
		case nil:
			return []shop.InventoryItem(nil), nil
		case []shop.InventoryItem:
			return slices.Clone(v), nil
		}
	case KeyLastSync:
		switch v := value.(type) {
		case nil:
			return time.Time{}, nil
		case time.Time:
			return v, nil
		}
	}
	return nil, wrong()
}

func (st State) field(key Key) any {
	switch key {
	case KeyUser:
		return st.User
	case KeyCart:
		return st.Cart
	case KeyIsAdmin:
		return st.IsAdmin
	case KeyProducts:
		return st.Products
	case KeyOrders:
		return st.Orders
	case KeyInventory:
		return st.Inventory
	case KeyLastSync:
		return st.LastSync
	}
	return nil
}

// assign stores a value already checked by coerce.
func (st *State) assign(key Key, value any) {
	switch key {
	case KeyUser:
		st.User = value.(*shop.User)
	case KeyCart:
		st.Cart = value.([]shop.CartItem)
	case KeyIsAdmin:
		st.IsAdmin = value.(bool)
	case KeyProducts:
		st.Products = value.([]shop.Product)
	case KeyOrders:
		st.Orders = value.([]shop.Order)
	case KeyInventory:
		st.Inventory = value.([]shop.InventoryItem)
	case KeyLastSync:
		st.LastSync = value.(time.Time)
	}
}

func (st State) clone() State {
	dup := st
	if st.User != nil {
		u := *st.User
		dup.User = &u
	}
	dup.Cart = slices.Clone(st.Cart)
	dup.Products = slices.Clone(st.Products)
	dup.Orders = cloneOrders(st.Orders)
	dup.Inventory = slices.Clone(st.Inventory)
	return dup
}

func cloneOrders(orders []shop.Order) []shop.Order {
	if orders == nil {
		return nil
	}
	dup := make([]shop.Order, len(orders))
	for i, o := range orders {
		o.Items = slices.Clone(o.Items)
		dup[i] = o
	}
	return dup
}

func persistContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), persistTimeout)
}
