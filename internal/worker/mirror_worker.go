// Package worker mirrors record changes announced over AMQP into an
// external store.
package worker

import (
	"context"
	"errors"
	"fmt"

	"registros/internal/amqp"
	"registros/internal/core"
	applog "registros/internal/log"
)

// Mirror is the external copy kept in step with the record store.
type Mirror interface {
	AppendRecord(ctx context.Context, userID string, r core.Record) (string, error)
	DeleteRecord(ctx context.Context, id string) error
}

// Consumer delivers messages from a queue until its context is done.
type Consumer interface {
	Consume(ctx context.Context, q amqp.Queue, handler amqp.Handler) error
}

// DefaultQueue is the durable queue the mirror worker reads from.
var DefaultQueue = amqp.Queue{Name: "registros_mirror", Durable: true}

type MirrorWorker struct {
	mirror Mirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror Mirror, logger *applog.Logger) *MirrorWorker {
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.OrDefault().WithComponent(applog.ComponentWorker),
	}
}

// Handle applies one change message to the mirror. Returning an error
// requeues the message.
func (w *MirrorWorker) Handle(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	log := w.logger.With(applog.FieldUserID, msg.UserID, applog.FieldRecordID, msg.RecordID)

	switch msg.Op {
	case amqp.OpCreated:
		if msg.Record == nil {
			log.WarnContext(ctx, "Created message without record, dropping")
			return nil
		}
		rec, err := msg.Record.ToRecord(msg.RecordID)
		if err != nil {
			// Unparseable payloads would loop forever on requeue.
			log.ErrorContext(ctx, "Dropping malformed record payload", applog.FieldError, err)
			return nil
		}
		ref, err := w.mirror.AppendRecord(ctx, msg.UserID, rec)
		if err != nil {
			return fmt.Errorf("mirror record %s: %w", msg.RecordID, err)
		}
		log.InfoContext(ctx, "Record mirrored", applog.FieldSheetsRef, ref)
		return nil

	case amqp.OpDeleted:
		if err := w.mirror.DeleteRecord(ctx, msg.RecordID); err != nil {
			return fmt.Errorf("remove mirrored record %s: %w", msg.RecordID, err)
		}
		log.InfoContext(ctx, "Mirrored record removed")
		return nil
	}

	log.WarnContext(ctx, "Unknown operation, dropping", "op", string(msg.Op))
	return nil
}

// Run consumes q until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, c Consumer, q amqp.Queue) error {
	if c == nil {
		return errors.New("no consumer configured")
	}
	w.logger.InfoContext(ctx, "Mirror worker started", applog.FieldQueue, q.Name)
	err := c.Consume(ctx, q, w.Handle)
	w.logger.InfoContext(ctx, "Mirror worker stopped", applog.FieldQueue, q.Name)
	return err
}
