package storage

import (
	"context"
	"database/sql"
	"log/slog"

	"registros/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// RecordRow is the column layout shared by both SQL stores.
type RecordRow struct {
	ID               string
	UserID           string
	Description      string
	Amount           string
	Category         string
	CounterpartyName string
	EntryDate        string
	PaymentMethod    string
	CreatedAt        int64
}

const insertRecord = `INSERT INTO records (
    id, user_id, description, amount, category, counterparty_name, entry_date, payment_method, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecord(ctx context.Context, arg RecordRow) error {
	_, err := q.db.ExecContext(ctx, insertRecord,
		arg.ID,
		arg.UserID,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.CounterpartyName,
		arg.EntryDate,
		arg.PaymentMethod,
		arg.CreatedAt,
	)
	return err
}

const deleteRecord = `DELETE FROM records WHERE user_id = ? AND id = ?`

// DeleteRecord returns the number of rows removed.
func (q *Queries) DeleteRecord(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecord, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRecords = `SELECT id, user_id, description, amount, category, counterparty_name, entry_date, payment_method, created_at
FROM records
WHERE user_id = ?`

func (q *Queries) ListRecords(ctx context.Context, userID string) ([]RecordRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecords, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecordRow
	for rows.Next() {
		var i RecordRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Description,
			&i.Amount,
			&i.Category,
			&i.CounterpartyName,
			&i.EntryDate,
			&i.PaymentMethod,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func rowFromRecord(userID string, r core.Record) RecordRow {
	return RecordRow{
		ID:               r.ID,
		UserID:           userID,
		Description:      r.Description,
		Amount:           r.Amount.String(),
		Category:         string(r.Category),
		CounterpartyName: r.CounterpartyName,
		EntryDate:        r.EntryDate.String(),
		PaymentMethod:    string(r.PaymentMethod),
		CreatedAt:        r.CreatedAt,
	}
}

// toRecord maps a stored row back to a record. Damaged columns do not fail
// the read: an unparsable amount becomes an invalid Amount, which the
// balance skips.
func (row RecordRow) toRecord(logger *slog.Logger) core.Record {
	amount, err := core.ParseAmount(row.Amount)
	if err != nil {
		logger.Warn("Stored amount is not a number",
			"record_id", row.ID,
			"amount", row.Amount)
		amount = core.InvalidAmount(row.Amount)
	}
	date, err := core.ParseDate(row.EntryDate)
	if err != nil {
		logger.Warn("Stored entry date is invalid",
			"record_id", row.ID,
			"entry_date", row.EntryDate)
	}
	return core.Record{
		ID:               row.ID,
		Description:      row.Description,
		Amount:           amount,
		Category:         core.Category(row.Category),
		CounterpartyName: row.CounterpartyName,
		EntryDate:        date,
		PaymentMethod:    core.PaymentMethod(row.PaymentMethod),
		CreatedAt:        row.CreatedAt,
	}
}
