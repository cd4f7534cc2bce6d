// Package session builds the per-identity context through which the rest
// of the application reaches the record store and the live feed.
package session

import (
	"context"
	"errors"
	"fmt"

	"registros/internal/core"
	"registros/internal/feed"
	applog "registros/internal/log"
	"registros/internal/records"
)

// ErrNotReady means the identity or the store could not be established.
// It is fatal for the session.
var ErrNotReady = errors.New("session not ready")

// Subscriber opens live record feeds.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (*feed.Subscription, error)
}

// Manager opens session contexts. It holds no per-user state.
type Manager struct {
	store  records.Gateway
	feed   Subscriber
	pinger records.Pinger
	logger *applog.Logger
}

type Option func(*Manager)

// WithPinger makes Open check store availability.
func WithPinger(p records.Pinger) Option {
	return func(m *Manager) { m.pinger = p }
}

func WithLogger(l *applog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(store records.Gateway, sub Subscriber, opts ...Option) *Manager {
	m := &Manager{store: store, feed: sub}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.OrDefault().WithComponent(applog.ComponentSession)
	return m
}

// Open returns the session context of userID.
func (m *Manager) Open(ctx context.Context, userID string) (*Context, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: no identity", ErrNotReady)
	}
	if m.store == nil || m.feed == nil {
		return nil, fmt.Errorf("%w: store unavailable", ErrNotReady)
	}
	if m.pinger != nil {
		if err := m.pinger.Ping(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Record store unreachable",
				applog.NewFields().WithUser(userID).WithError(err)...)
			return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
	}
	return &Context{userID: userID, store: m.store, feed: m.feed}, nil
}

// Context is an open session: a user id bound to the store and feed
// handles. Every operation is scoped to that user.
type Context struct {
	userID string
	store  records.Gateway
	feed   Subscriber
}

func (c *Context) UserID() string { return c.userID }

// Ready reports whether the session can reach the store.
func (c *Context) Ready() bool {
	return c != nil && c.userID != "" && c.store != nil
}

func (c *Context) Create(ctx context.Context, r core.Record) (string, error) {
	return c.store.Create(ctx, c.userID, r)
}

func (c *Context) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.userID, id)
}

// List returns the user's records newest first.
func (c *Context) List(ctx context.Context) ([]core.Record, error) {
	list, err := c.store.List(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	return core.SortByRecency(list), nil
}

// Find returns one record of the user.
func (c *Context) Find(ctx context.Context, id string) (core.Record, error) {
	list, err := c.store.List(ctx, c.userID)
	if err != nil {
		return core.Record{}, err
	}
	r, ok := core.Find(list, id)
	if !ok {
		return core.Record{}, records.ErrNotFound
	}
	return r, nil
}

// Subscribe opens the live feed of the user's record set.
func (c *Context) Subscribe(ctx context.Context) (*feed.Subscription, error) {
	return c.feed.Subscribe(ctx, c.userID)
}
