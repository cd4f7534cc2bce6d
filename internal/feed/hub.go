// Package feed streams full record-set snapshots to live subscribers.
//
// A subscription receives the current set as soon as it is opened and a new
// snapshot after every change announced with Notify. Each snapshot replaces
// the previous one entirely; a subscriber that falls behind only ever sees
// the newest snapshot.
package feed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"registros/internal/cache"
	"registros/internal/core"
	applog "registros/internal/log"
	"registros/internal/records"
)

// Snapshot is the state of a user's record set at a point in time.
// Records are sorted newest first and shared between subscribers; do not
// modify them.
type Snapshot struct {
	Records []core.Record
	Balance core.Amount
	// Err is set when the set could not be loaded. Records and Balance then
	// hold the last known state, if any.
	Err error
	At  time.Time

	// gen orders snapshots of one user; a subscription never goes back to
	// a lower generation.
	gen uint64
}

// Hub fans snapshots out to subscribers.
type Hub struct {
	lister records.Lister
	logger *applog.Logger
	now    func() time.Time

	group singleflight.Group
	last  *cache.LastKnown

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	gens   map[string]uint64
	closed bool
}

type Option func(*Hub)

func WithLogger(l *applog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithLastKnown sets the cache holding the last loaded set per user.
func WithLastKnown(c *cache.LastKnown) Option {
	return func(h *Hub) { h.last = c }
}

func NewHub(lister records.Lister, opts ...Option) *Hub {
	h := &Hub{
		lister: lister,
		now:    time.Now,
		subs:   make(map[string]map[*Subscription]struct{}),
		gens:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.OrDefault().WithComponent(applog.ComponentFeed)
	if h.last == nil {
		h.last = cache.NewLastKnown(1000, time.Hour)
	}
	return h
}

// LastKnown exposes the last-known cache so it can be swept periodically.
func (h *Hub) LastKnown() *cache.LastKnown {
	return h.last
}

// Subscribe opens a stream for userID. The first snapshot is available
// immediately. The stream ends when ctx is done, when Close is called on
// the subscription, or when the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if userID == "" {
		return nil, records.ErrEmptyUser
	}
	s := &Subscription{
		hub:    h,
		userID: userID,
		ch:     make(chan Snapshot, 1),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	gen := h.gens[userID]
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	// A Notify that runs during this load offers a newer generation, and
	// the initial snapshot is then dropped.
	s.offer(h.load(ctx, userID, gen, false))
	h.logger.DebugContext(ctx, "Subscription opened",
		applog.FieldUserID, userID,
		applog.FieldSubscribers, h.Subscribers(userID))
	return s, nil
}

// Notify reloads the user's record set and delivers it to every open
// subscription of that user.
func (h *Hub) Notify(ctx context.Context, userID string) {
	h.mu.Lock()
	set := h.subs[userID]
	if len(set) == 0 {
		delete(h.gens, userID)
		h.mu.Unlock()
		// Nobody listening; drop the cached set so the next subscriber loads fresh.
		h.last.Forget(userID)
		return
	}
	h.gens[userID]++
	gen := h.gens[userID]
	subs := make([]*Subscription, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	snap := h.load(ctx, userID, gen, true)
	for _, s := range subs {
		s.offer(snap)
	}
	h.logger.DebugContext(ctx, "Snapshot broadcast",
		applog.FieldOperation, applog.OpNotify,
		applog.FieldUserID, userID,
		applog.FieldSubscribers, len(subs))
}

// Subscribers returns the number of open subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close ends every subscription. Later calls to Subscribe fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.userID)
		}
	}
}

// load lists the user's records. Concurrent loads for the same user share
// one store call. A load following a change must not join a call that may
// have started before the change, so fresh forces a new call.
func (h *Hub) load(ctx context.Context, userID string, gen uint64, fresh bool) Snapshot {
	if fresh {
		h.group.Forget(userID)
	}
	v, err, _ := h.group.Do(userID, func() (any, error) {
		list, err := h.lister.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		sorted := core.SortByRecency(list)
		h.last.Remember(userID, sorted)
		return sorted, nil
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to load records",
			applog.NewFields().WithOperation(applog.OpList).WithUser(userID).WithError(err)...)
		last, _ := h.last.Recall(userID)
		return Snapshot{Records: last, Balance: core.Balance(last), Err: err, At: h.now(), gen: gen}
	}
	list := v.([]core.Record)
	return Snapshot{Records: list, Balance: core.Balance(list), At: h.now(), gen: gen}
}
