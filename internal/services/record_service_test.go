package services

import (
	"context"
	"errors"
	"testing"

	"registros/internal/amqp"
	"registros/internal/core"
	applog "registros/internal/log"
	"registros/internal/records"
	"registros/internal/records/memory"
)

type fakePublisher struct {
	msgs []*amqp.RecordChangedMessage
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, msg *amqp.RecordChangedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeNotifier struct {
	users []string
}

func (f *fakeNotifier) Notify(_ context.Context, userID string) {
	f.users = append(f.users, userID)
}

func sampleRecord() core.Record {
	return core.Record{
		Description: "Salario", Amount: core.AmountFromCents(100000), Category: core.Income,
		CounterpartyName: "ACME", EntryDate: core.NewDate(2024, 1, 1), PaymentMethod: core.Transfer,
		CreatedAt: 1704067200000,
	}
}

func newService(pub Publisher, n Notifier) *RecordService {
	return NewRecordService(memory.New(),
		WithPublisher(pub), WithNotifier(n), WithOrigin("web-1"), WithLogger(applog.Discard()))
}

func TestRecordService_CreateNotifiesAndPublishes(t *testing.T) {
	pub, n := &fakePublisher{}, &fakeNotifier{}
	s := newService(pub, n)

	id, err := s.Create(context.Background(), "u1", sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(n.users) != 1 || n.users[0] != "u1" {
		t.Fatalf("expected one notification for u1, got %v", n.users)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Op != amqp.OpCreated || msg.RecordID != id || msg.Origin != "web-1" || msg.Record == nil {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestRecordService_PublishFailureDoesNotFail(t *testing.T) {
	pub, n := &fakePublisher{err: errors.New("broker down")}, &fakeNotifier{}
	s := newService(pub, n)

	if _, err := s.Create(context.Background(), "u1", sampleRecord()); err != nil {
		t.Fatalf("create should succeed, got %v", err)
	}
	list, _ := s.List(context.Background(), "u1")
	if len(list) != 1 {
		t.Fatalf("record not stored")
	}
}

func TestRecordService_Delete(t *testing.T) {
	pub, n := &fakePublisher{}, &fakeNotifier{}
	s := newService(pub, n)
	ctx := context.Background()
	id, _ := s.Create(ctx, "u1", sampleRecord())

	if err := s.Delete(ctx, "u1", id); err != nil {
		t.Fatal(err)
	}
	if last := pub.msgs[len(pub.msgs)-1]; last.Op != amqp.OpDeleted || last.RecordID != id {
		t.Fatalf("unexpected message %+v", last)
	}
	if err := s.Delete(ctx, "u1", id); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.msgs) != 2 || len(n.users) != 2 {
		t.Fatalf("failed delete must not notify or publish: msgs=%d notes=%d", len(pub.msgs), len(n.users))
	}
}

func TestRecordService_HandleChangeSkipsOwnOrigin(t *testing.T) {
	n := &fakeNotifier{}
	s := newService(nil, n)
	ctx := context.Background()

	_ = s.HandleChange(ctx, amqp.NewDeletedMessage("web-1", "u1", "r1"))
	if len(n.users) != 0 {
		t.Fatal("own change must be skipped")
	}
	_ = s.HandleChange(ctx, amqp.NewDeletedMessage("web-2", "u1", "r1"))
	if len(n.users) != 1 {
		t.Fatal("remote change must notify")
	}
}

func TestRecordService_Close(t *testing.T) {
	s := NewRecordService(memory.New())
	if err := s.Close(); err != nil {
		t.Fatalf("Close should not return error: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
