package backend

import (
	"context"
	"path/filepath"
	"testing"

	"registros/internal/config"
	"registros/internal/core"
	applog "registros/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != PostgresBackend || got.DatabaseURL != "postgres://x" {
		t.Fatalf("unexpected config %+v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactoryCreates(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(applog.Discard())

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "registros.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.Create(ctx, cfg)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if res.Cleanup != nil {
				defer res.Cleanup()
			}
			if err := res.Store.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			rec := core.Record{
				Description: "Pago", Amount: core.AmountFromCents(100), Category: core.Income,
				CounterpartyName: "Acme", EntryDate: core.NewDate(2024, 1, 15), PaymentMethod: core.Cash,
			}
			if _, err := res.Store.Create(ctx, "u1", rec); err != nil {
				t.Fatalf("Create record: %v", err)
			}
			list, err := res.Store.List(ctx, "u1")
			if err != nil || len(list) != 1 {
				t.Fatalf("List = %d, %v", len(list), err)
			}
		})
	}
}
