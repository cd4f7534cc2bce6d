package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"registros/internal/core"
	applog "registros/internal/log"
	"registros/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the record store backed by a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.OrDefault().WithComponent(applog.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements records.Creator
func (r *SQLiteRepository) Create(ctx context.Context, userID string, rec core.Record) (string, error) {
	rec, err := prepare(userID, rec, r.now)
	if err != nil {
		return "", err
	}
	if err := r.queries.InsertRecord(ctx, rowFromRecord(userID, rec)); err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	r.logger.InfoContext(ctx, "Record saved to SQLite",
		applog.NewFields().WithUser(userID).
			WithRecord(rec.ID, string(rec.Category), rec.Description, rec.Amount.String())...)

	return rec.ID, nil
}

// Delete implements records.Deleter
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return records.ErrEmptyUser
	}
	n, err := r.queries.DeleteRecord(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Record deleted from SQLite", applog.FieldUserID, userID, applog.FieldRecordID, id)
	return nil
}

// List implements records.Lister
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]core.Record, error) {
	if userID == "" {
		return nil, records.ErrEmptyUser
	}
	rows, err := r.queries.ListRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]core.Record, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord(r.logger.Logger)
	}
	return out, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// prepare validates a record about to be stored and assigns its id and,
// when missing, its creation time.
func prepare(userID string, rec core.Record, now func() time.Time) (core.Record, error) {
	if userID == "" {
		return rec, records.ErrEmptyUser
	}
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return rec, fmt.Errorf("generate id: %w", err)
	}
	rec.ID = id.String()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now().UnixMilli()
	}
	return rec, nil
}
