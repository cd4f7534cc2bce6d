package services

import (
	"context"
	"errors"
	"fmt"

	"registros/internal/amqp"
	"registros/internal/core"
	applog "registros/internal/log"
	"registros/internal/records"
)

// Publisher announces record changes to other processes.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.RecordChangedMessage) error
}

// Notifier refreshes live subscriptions of a user.
type Notifier interface {
	Notify(ctx context.Context, userID string)
}

// RecordService is the record gateway seen by sessions: it stores through
// the configured backend, refreshes this process's live feeds and publishes
// the change for other processes.
type RecordService struct {
	store     records.Gateway
	publisher Publisher
	notifier  Notifier
	origin    string
	logger    *applog.Logger
}

type Option func(*RecordService)

func WithPublisher(p Publisher) Option { return func(s *RecordService) { s.publisher = p } }
func WithNotifier(n Notifier) Option   { return func(s *RecordService) { s.notifier = n } }
func WithLogger(l *applog.Logger) Option {
	return func(s *RecordService) { s.logger = l }
}

// WithOrigin names this process in published messages so it can skip its
// own changes when they come back from the broker.
func WithOrigin(origin string) Option { return func(s *RecordService) { s.origin = origin } }

func NewRecordService(store records.Gateway, opts ...Option) *RecordService {
	s := &RecordService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.OrDefault().WithComponent(applog.ComponentRecords)
	return s
}

// Create stores the record, then notifies and publishes. Publishing
// failures are logged only; the record is already stored.
func (s *RecordService) Create(ctx context.Context, userID string, r core.Record) (string, error) {
	id, err := s.store.Create(ctx, userID, r)
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}
	r.ID = id

	s.notify(ctx, userID)
	s.publish(ctx, amqp.NewCreatedMessage(s.origin, userID, r))
	return id, nil
}

// Delete removes the record, then notifies and publishes.
func (s *RecordService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.notify(ctx, userID)
	s.publish(ctx, amqp.NewDeletedMessage(s.origin, userID, id))
	return nil
}

func (s *RecordService) List(ctx context.Context, userID string) ([]core.Record, error) {
	return s.store.List(ctx, userID)
}

// Ping reports store availability when the backend supports it.
func (s *RecordService) Ping(ctx context.Context) error {
	if p, ok := s.store.(records.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// HandleChange refreshes local feeds for a change made by another process.
func (s *RecordService) HandleChange(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	if s.origin != "" && msg.Origin == s.origin {
		return nil
	}
	s.notify(ctx, msg.UserID)
	return nil
}

func (s *RecordService) notify(ctx context.Context, userID string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, userID)
	}
}

func (s *RecordService) publish(ctx context.Context, msg *amqp.RecordChangedMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record change",
			applog.NewFields().WithOperation(applog.OpPublish).
				WithUser(msg.UserID).WithRecordID(msg.RecordID).WithError(err)...)
	}
}

// Close releases the store and publisher when they hold resources.
func (s *RecordService) Close() error {
	var errs []error
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
