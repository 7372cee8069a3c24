package autosync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/five82/stockroom/internal/events"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/state"
)

// Domain names a cached collection the scheduler keeps fresh.
type Domain string

const (
	Products  Domain = "products"
	Orders    Domain = "orders"
	Inventory Domain = "inventory"
)

// Domains lists every domain in refresh order.
var Domains = []Domain{Products, Orders, Inventory}

// Default cadence and staleness thresholds.
const (
	DefaultPeriod             = 5 * time.Minute
	DefaultProductsThreshold  = 10 * time.Minute
	DefaultOrdersThreshold    = 2 * time.Minute
	DefaultInventoryThreshold = 5 * time.Minute
)

// ErrNotLoggedIn is returned by ForceRefresh when no session exists.
var ErrNotLoggedIn = errors.New("not logged in")

// ErrBusy is returned by ForceRefresh when another refresh is in progress.
var ErrBusy = errors.New("sync already running")

// Lister fetches one domain's collection.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Sources are the repositories refreshed by the scheduler.
type Sources struct {
	Products  Lister[shop.Product]
	Orders    Lister[shop.Order]
	Inventory Lister[shop.InventoryItem]
}

// Entry is the freshness record of one domain.
type Entry struct {
	Domain        Domain
	Threshold     time.Duration
	LastRefreshed time.Time
	AdminOnly     bool
}

// Stale reports whether the entry is due at now. A domain that has never
// been refreshed is always due.
func (e Entry) Stale(now time.Time) bool {
	return e.LastRefreshed.IsZero() || now.Sub(e.LastRefreshed) > e.Threshold
}

// Options configure a Scheduler. Zero values take the defaults.
type Options struct {
	Period     time.Duration
	Thresholds map[Domain]time.Duration
	Bus        events.Publisher
	Logger     *slog.Logger
	// Now replaces time.Now for staleness checks and timestamps.
	Now func() time.Time
}

// Result describes one tick or forced refresh.
type Result struct {
	Refreshed []Domain
	Failed    map[Domain]error
	// Skipped is set when the tick did nothing: no session, nothing due, or
	// another tick was already running.
	Skipped bool
	// Busy is set when another tick was already running.
	Busy bool
	// Err is set when the tick itself failed rather than a single domain.
	Err error
}

// DomainResult is published on events.SyncDomain after each refresh.
type DomainResult struct {
	Domain Domain
	Count  int
	Err    error
}

// Scheduler refreshes stale domain collections into the state store.
type Scheduler struct {
	store   *state.Store
	sources Sources
	bus     events.Publisher
	logger  *slog.Logger
	now     func() time.Time
	period  time.Duration

	mu      sync.Mutex
	entries map[Domain]*Entry
	ticking bool
	cancel  context.CancelFunc
	loop    *conc.WaitGroup
}

// New builds an idle scheduler.
func New(store *state.Store, sources Sources, opts Options) *Scheduler {
	s := &Scheduler{
		store:   store,
		sources: sources,
		bus:     opts.Bus,
		logger:  opts.Logger,
		now:     opts.Now,
		period:  opts.Period,
		entries: map[Domain]*Entry{
			Products:  {Domain: Products, Threshold: DefaultProductsThreshold},
			Orders:    {Domain: Orders, Threshold: DefaultOrdersThreshold},
			Inventory: {Domain: Inventory, Threshold: DefaultInventoryThreshold, AdminOnly: true},
		},
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.period <= 0 {
		s.period = DefaultPeriod
	}
	for d, threshold := range opts.Thresholds {
		if e, ok := s.entries[d]; ok && threshold > 0 {
			e.Threshold = threshold
		}
	}
	return s
}

// Start launches the timer loop. It runs a tick immediately and then every
// period until Stop or ctx cancellation. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loop = &conc.WaitGroup{}
	s.loop.Go(func() {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		for {
			s.Tick(loopCtx)
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
			}
		}
	})
	s.logger.Info("sync scheduler started", "period", s.period)
}

// Stop halts the loop and waits for an in-flight tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, loop := s.cancel, s.loop
	s.cancel, s.loop = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	loop.Wait()
	s.logger.Info("sync scheduler stopped")
}

// Running reports whether the timer loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Entries returns a copy of the freshness records in Domains order.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(Domains))
	for _, d := range Domains {
		out = append(out, *s.entries[d])
	}
	return out
}

// Tick refreshes every due domain. It does nothing without a logged-in user.
func (s *Scheduler) Tick(ctx context.Context) Result {
	return s.run(ctx, func(now time.Time, admin bool) []Domain {
		var due []Domain
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, d := range Domains {
			e := s.entries[d]
			if e.AdminOnly && !admin {
				continue
			}
			if e.Stale(now) {
				due = append(due, d)
			}
		}
		return due
	})
}

// ForceRefresh refreshes the given domains, or every permitted domain when
// none are given, ignoring thresholds. Admin-only domains are skipped for
// non-admin sessions. It returns ErrBusy if a tick is already running.
func (s *Scheduler) ForceRefresh(ctx context.Context, domains ...Domain) (Result, error) {
	if s.store.User() == nil {
		return Result{Skipped: true}, ErrNotLoggedIn
	}
	if len(domains) == 0 {
		domains = Domains
	}
	for _, d := range domains {
		if _, ok := s.entries[d]; !ok {
			return Result{}, fmt.Errorf("unknown sync domain %q", d)
		}
	}
	res := s.run(ctx, func(_ time.Time, admin bool) []Domain {
		var out []Domain
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, d := range domains {
			if s.entries[d].AdminOnly && !admin {
				continue
			}
			out = append(out, d)
		}
		return out
	})
	if res.Busy {
		return res, ErrBusy
	}
	return res, res.Err
}

func (s *Scheduler) run(ctx context.Context, selectDue func(now time.Time, admin bool) []Domain) (res Result) {
	if s.store.User() == nil {
		return Result{Skipped: true}
	}

	s.mu.Lock()
	if s.ticking {
		s.mu.Unlock()
		return Result{Skipped: true, Busy: true}
	}
	s.ticking = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.ticking = false
		s.mu.Unlock()
	}()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("sync tick panicked: %v", r)}
		}
		if res.Err != nil {
			s.logger.Error("sync failed", "error", res.Err)
			s.publish(events.SyncFailed, res)
		}
	}()

	due := selectDue(s.now(), s.store.IsAdmin())
	if len(due) == 0 {
		return Result{Skipped: true}
	}
	s.publish(events.SyncStarted, due)

	res = s.refresh(ctx, due)
	if res.Err != nil {
		return res
	}
	if len(res.Refreshed) > 0 {
		s.store.SetLastSync(s.now())
		s.publish(events.SyncSuccess, res)
	}
	return res
}

// refresh runs every domain concurrently and waits for all of them. A
// failing domain is logged and recorded; it never affects the others.
func (s *Scheduler) refresh(ctx context.Context, due []Domain) Result {
	var (
		mu  sync.Mutex
		res = Result{Failed: make(map[Domain]error)}
		wg  conc.WaitGroup
	)
	for _, d := range due {
		d := d
		wg.Go(func() {
			count, err := s.refreshDomain(ctx, d)
			mu.Lock()
			if err != nil {
				res.Failed[d] = err
			} else {
				res.Refreshed = append(res.Refreshed, d)
			}
			mu.Unlock()
			if err != nil {
				s.logger.Warn("sync domain failed", "domain", d, "error", err)
			} else {
				s.logger.Debug("sync domain refreshed", "domain", d, "count", count)
			}
			s.publish(events.SyncDomain, DomainResult{Domain: d, Count: count, Err: err})
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		return Result{Err: r.AsError()}
	}
	res.Refreshed = orderDomains(res.Refreshed)
	return res
}

func (s *Scheduler) refreshDomain(ctx context.Context, d Domain) (int, error) {
	var count int
	switch d {
	case Products:
		items, err := listFrom(ctx, s.sources.Products)
		if err != nil {
			return 0, err
		}
		s.store.SetProducts(items)
		count = len(items)
	case Orders:
		items, err := listFrom(ctx, s.sources.Orders)
		if err != nil {
			return 0, err
		}
		s.store.SetOrders(items)
		count = len(items)
	case Inventory:
		items, err := listFrom(ctx, s.sources.Inventory)
		if err != nil {
			return 0, err
		}
		s.store.SetInventory(items)
		count = len(items)
	}

	s.mu.Lock()
	s.entries[d].LastRefreshed = s.now()
	s.mu.Unlock()
	return count, nil
}

func listFrom[T any](ctx context.Context, l Lister[T]) ([]T, error) {
	if l == nil {
		return nil, errors.New("no source configured")
	}
	return l.List(ctx)
}

func orderDomains(in []Domain) []Domain {
	out := make([]Domain, 0, len(in))
	for _, d := range Domains {
		for _, got := range in {
			if got == d {
				out = append(out, d)
			}
		}
	}
	return out
}

func (s *Scheduler) publish(channel string, payload any) {
	if s.bus != nil {
		s.bus.Publish(channel, payload)
	}
}
