package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"registros/internal/core"
	applog "registros/internal/log"
	"registros/internal/records"
)

// PostgresRepository is the record store backed by a Postgres database.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *applog.Logger
	now    func() time.Time
}

// NewPostgresRepository migrates the schema and opens a connection pool.
func NewPostgresRepository(ctx context.Context, databaseURL string, logger *applog.Logger) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepository{
		pool:   pool,
		logger: logger.OrDefault().WithComponent(applog.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, rec core.Record) (string, error) {
	rec, err := prepare(userID, rec, r.now)
	if err != nil {
		return "", err
	}
	row := rowFromRecord(userID, rec)
	_, err = r.pool.Exec(ctx, `INSERT INTO records (
    id, user_id, description, amount, category, counterparty_name, entry_date, payment_method, created_at
) VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7::text::date, $8, $9)`,
		row.ID, row.UserID, row.Description, row.Amount, row.Category,
		row.CounterpartyName, row.EntryDate, row.PaymentMethod, row.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	r.logger.InfoContext(ctx, "Record saved to Postgres",
		applog.NewFields().WithUser(userID).
			WithRecord(rec.ID, string(rec.Category), rec.Description, rec.Amount.String())...)
	return rec.ID, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return records.ErrEmptyUser
	}
	// Ids are UUIDs; anything else cannot exist.
	if _, err := uuid.Parse(id); err != nil {
		return records.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM records WHERE user_id = $1 AND id = $2::text::uuid`, userID, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Record deleted from Postgres", applog.FieldUserID, userID, applog.FieldRecordID, id)
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]core.Record, error) {
	if userID == "" {
		return nil, records.ErrEmptyUser
	}
	rows, err := r.pool.Query(ctx, `SELECT id::text, user_id, description, amount, category,
    counterparty_name, entry_date::text, payment_method, created_at
FROM records
WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var row RecordRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.Description, &row.Amount, &row.Category,
			&row.CounterpartyName, &row.EntryDate, &row.PaymentMethod, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, row.toRecord(r.logger.Logger))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
