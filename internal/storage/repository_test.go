package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"registros/internal/core"
	applog "registros/internal/log"
	"registros/internal/records"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"), applog.Discard())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func support(desc string) core.Record {
	amount, _ := core.ParseAmount("50.5")
	return core.Record{
		Description:      desc,
		Amount:           amount,
		Category:         core.Support,
		CounterpartyName: `Ana "la" Pérez`,
		EntryDate:        core.NewDate(2024, 1, 15),
		PaymentMethod:    core.Transfer,
		CreatedAt:        1705312800000,
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Create(ctx, "u1", support("Apoyo, enero"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, "u2", support("otro")); err != nil {
		t.Fatalf("create u2: %v", err)
	}

	list, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 record for u1, got %d", len(list))
	}
	got := list[0]
	if got.ID != id || got.Description != "Apoyo, enero" || got.CounterpartyName != `Ana "la" Pérez` {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Amount.Fixed() != "50.50" || got.EntryDate.String() != "2024-01-15" || got.CreatedAt != 1705312800000 {
		t.Fatalf("unexpected values: amount=%s date=%s created=%d", got.Amount.Fixed(), got.EntryDate, got.CreatedAt)
	}
	if got.Category != core.Support || got.PaymentMethod != core.Transfer {
		t.Fatalf("unexpected enums: %+v", got)
	}

	if err := repo.Delete(ctx, "u2", id); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across users, got %v", err)
	}
	if err := repo.Delete(ctx, "u1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = repo.List(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestSQLiteRepositoryToleratesBadAmount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Create(ctx, "u1", support("ok")); err != nil {
		t.Fatal(err)
	}
	bad := rowFromRecord("u1", support("bad"))
	bad.ID = "bad-row"
	bad.Amount = "abc"
	if err := repo.queries.InsertRecord(ctx, bad); err != nil {
		t.Fatalf("insert raw row: %v", err)
	}

	list, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if got := core.Balance(list).Fixed(); got != "50.50" {
		t.Fatalf("expected bad amount skipped, balance %s", got)
	}
}

func TestSQLiteRepositoryRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	r := support("x")
	r.Description = ""
	if _, err := repo.Create(context.Background(), "u1", r); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
