package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"registros/internal/core"
)

// Op is the kind of change a message announces.
type Op string

const (
	OpCreated Op = "created"
	OpDeleted Op = "deleted"
)

var ErrInvalidMessage = errors.New("invalid record change message")

// RecordChangedMessage announces that a user's record set changed. Created
// messages carry the full record so consumers need no store access.
type RecordChangedMessage struct {
	Op        Op             `json:"op"`
	UserID    string         `json:"user_id"`
	RecordID  string         `json:"record_id"`
	Origin    string         `json:"origin,omitempty"`
	Record    *RecordPayload `json:"record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RecordPayload is the wire form of a record. The amount travels as a
// decimal string.
type RecordPayload struct {
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	Category         string `json:"category"`
	CounterpartyName string `json:"counterparty_name"`
	EntryDate        string `json:"entry_date"`
	PaymentMethod    string `json:"payment_method"`
	CreatedAt        int64  `json:"created_at"`
}

// NewCreatedMessage announces a stored record.
func NewCreatedMessage(origin, userID string, r core.Record) *RecordChangedMessage {
	return &RecordChangedMessage{
		Op:       OpCreated,
		UserID:   userID,
		RecordID: r.ID,
		Origin:   origin,
		Record: &RecordPayload{
			Description:      r.Description,
			Amount:           r.Amount.String(),
			Category:         string(r.Category),
			CounterpartyName: r.CounterpartyName,
			EntryDate:        r.EntryDate.String(),
			PaymentMethod:    string(r.PaymentMethod),
			CreatedAt:        r.CreatedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewDeletedMessage announces a removed record.
func NewDeletedMessage(origin, userID, recordID string) *RecordChangedMessage {
	return &RecordChangedMessage{
		Op:        OpDeleted,
		UserID:    userID,
		RecordID:  recordID,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedMessageFromJSON decodes and checks a message.
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.RecordID == "" {
		return nil, fmt.Errorf("%w: missing user or record id", ErrInvalidMessage)
	}
	switch msg.Op {
	case OpCreated:
		if msg.Record == nil {
			return nil, fmt.Errorf("%w: created without record", ErrInvalidMessage)
		}
	case OpDeleted:
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, msg.Op)
	}
	return &msg, nil
}

// ToRecord rebuilds the record carried by a created message.
func (p *RecordPayload) ToRecord(id string) (core.Record, error) {
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	date, err := core.ParseDate(p.EntryDate)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	return core.Record{
		ID:               id,
		Description:      p.Description,
		Amount:           amount,
		Category:         core.Category(p.Category),
		CounterpartyName: p.CounterpartyName,
		EntryDate:        date,
		PaymentMethod:    core.PaymentMethod(p.PaymentMethod),
		CreatedAt:        p.CreatedAt,
	}, nil
}
