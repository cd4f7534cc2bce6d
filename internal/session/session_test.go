package session

import (
	"context"
	"errors"
	"testing"

	"registros/internal/core"
	"registros/internal/feed"
	applog "registros/internal/log"
	"registros/internal/records"
	"registros/internal/records/memory"
)

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func newManager(opts ...Option) (*Manager, *memory.Store) {
	store := memory.New()
	hub := feed.NewHub(store, feed.WithLogger(applog.Discard()))
	return NewManager(store, hub, append(opts, WithLogger(applog.Discard()))...), store
}

func TestOpenRequiresIdentity(t *testing.T) {
	m, _ := newManager()
	if _, err := m.Open(context.Background(), ""); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	m, _ = newManager(WithPinger(downPinger{}))
	if _, err := m.Open(context.Background(), "u1"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady for unreachable store, got %v", err)
	}
	if _, err := NewManager(nil, nil).Open(context.Background(), "u1"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady without store, got %v", err)
	}
}

func TestContextIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager()
	a, err := m.Open(ctx, "alice")
	if err != nil || !a.Ready() {
		t.Fatalf("open: %v", err)
	}
	b, _ := m.Open(ctx, "bob")

	r := core.Record{
		Description: "Salario", Amount: core.AmountFromCents(100), Category: core.Income,
		CounterpartyName: "ACME", EntryDate: core.NewDate(2024, 1, 1), PaymentMethod: core.Cash,
	}
	id, err := a.Create(ctx, r)
	if err != nil {
		t.Fatal(err)
	}
	if list, _ := b.List(ctx); len(list) != 0 {
		t.Fatalf("bob sees alice's records: %+v", list)
	}
	if err := b.Delete(ctx, id); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := a.Find(ctx, id)
	if err != nil || got.ID != id {
		t.Fatalf("find: %+v %v", got, err)
	}

	sub, err := a.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	snap := <-sub.C()
	if len(snap.Records) != 1 {
		t.Fatalf("expected 1 record in feed, got %d", len(snap.Records))
	}
}
