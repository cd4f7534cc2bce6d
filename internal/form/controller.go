package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"registros/internal/core"
	applog "registros/internal/log"
)

var (
	ErrCreateFailed = errors.New("could not add record")
	ErrDeleteFailed = errors.New("could not delete record")
)

// User-facing status texts.
const (
	MsgCreated      = "Registro agregado."
	MsgDeleted      = "Registro eliminado."
	MsgCreateFailed = "No se pudo agregar el registro."
	MsgDeleteFailed = "No se pudo eliminar el registro."
)

// Gateway is the slice of the record store the form needs. It is already
// scoped to the current user.
type Gateway interface {
	Create(ctx context.Context, r core.Record) (string, error)
	Delete(ctx context.Context, id string) error
}

type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the single transient message slot. Each event overwrites it.
type Status struct {
	Kind    StatusKind
	Message string
}

// Controller holds the form being filled in and submits it.
type Controller struct {
	gw     Gateway
	now    func() time.Time
	loc    *time.Location
	logger *applog.Logger

	mu     sync.Mutex
	form   Variant
	status Status
}

type Option func(*Controller)

// WithClock sets the clock used for default dates and CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLocation sets the time zone that defines "today".
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns a controller showing the income form.
func NewController(gw Gateway, opts ...Option) *Controller {
	c := &Controller{gw: gw, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.OrDefault().WithComponent(applog.ComponentForm)
	c.form = newVariant(core.Income, c.today())
	return c
}

func (c *Controller) today() core.Date {
	return core.DateOf(c.now().In(c.loc))
}

// SetCategory switches the form to c and applies its defaults.
func (c *Controller) SetCategory(cat core.Category) error {
	if !cat.Valid() {
		return core.ErrInvalidCategory
	}
	c.Reset(cat)
	return nil
}

// Reset replaces the form with a blank one for cat. Invalid categories
// fall back to income.
func (c *Controller) Reset(cat core.Category) {
	if !cat.Valid() {
		cat = core.Income
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = newVariant(cat, c.today())
}

func (c *Controller) Category() core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Category()
}

// Variant returns the current form. Callers must not modify it.
func (c *Controller) Variant() Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return valuesOf(c.form)
}

func (c *Controller) set(fn func(Variant)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.form)
}

func (c *Controller) SetDescription(s string) { c.set(func(v Variant) { v.common().Description = s }) }
func (c *Controller) SetName(s string)        { c.set(func(v Variant) { *v.counterparty() = s }) }
func (c *Controller) SetAmount(s string)      { c.set(func(v Variant) { v.common().Amount = s }) }
func (c *Controller) SetDate(s string)        { c.set(func(v Variant) { v.common().Date = s }) }

func (c *Controller) SetPaymentMethod(m core.PaymentMethod) {
	c.set(func(v Variant) { *v.payment() = string(m) })
}

// SetAttachment records the chosen file name. Files are not uploaded.
func (c *Controller) SetAttachment(name string) {
	c.set(func(v Variant) { v.common().Attachment = name })
	if name != "" {
		c.logger.Info("Attachment selected", applog.FieldAttachment, name, applog.FieldCategory, string(c.Category()))
	}
}

// Status returns the last status message.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(kind StatusKind, msg string) {
	c.mu.Lock()
	c.status = Status{Kind: kind, Message: msg}
	c.mu.Unlock()
}

// Submit validates the form and creates the record. A *ValidationError
// means the store was not called. On success the form is reset to the
// defaults of its category and the new id is returned.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	v := c.form
	trim(v)
	err := check(v)
	c.mu.Unlock()

	if err != nil {
		c.setStatus(StatusError, err.Error())
		c.logger.WarnContext(ctx, "Form validation failed",
			applog.FieldOperation, applog.OpValidate,
			applog.FieldCategory, string(v.Category()),
			applog.FieldError, err.Error())
		return "", err
	}

	rec, err := c.record(v)
	if err != nil {
		c.setStatus(StatusError, err.Error())
		return "", err
	}

	id, err := c.gw.Create(ctx, rec)
	if err != nil {
		c.setStatus(StatusError, MsgCreateFailed)
		c.logger.ErrorContext(ctx, "Failed to create record",
			applog.NewFields().WithOperation(applog.OpCreate).WithError(err)...)
		return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	c.logger.InfoContext(ctx, "Record created",
		applog.NewFields().WithOperation(applog.OpCreate).
			WithRecord(id, string(rec.Category), rec.Description, rec.Amount.String())...)
	c.Reset(rec.Category)
	c.setStatus(StatusSuccess, MsgCreated)
	return id, nil
}

// record builds the record from an already validated form.
func (c *Controller) record(v Variant) (core.Record, error) {
	common := v.common()
	amount, err := core.ParseAmount(common.Amount)
	if err != nil {
		return core.Record{}, err
	}
	date, err := core.ParseDate(common.Date)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{
		Description:      common.Description,
		Amount:           amount,
		Category:         v.Category(),
		CounterpartyName: *v.counterparty(),
		EntryDate:        date,
		PaymentMethod:    core.PaymentMethod(*v.payment()),
		CreatedAt:        c.now().UnixMilli(),
	}, nil
}

// Delete removes a record. There is no confirmation and no undo.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.gw.Delete(ctx, id); err != nil {
		c.setStatus(StatusError, MsgDeleteFailed)
		c.logger.ErrorContext(ctx, "Failed to delete record",
			applog.NewFields().WithOperation(applog.OpDelete).WithRecordID(id).WithError(err)...)
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	c.setStatus(StatusSuccess, MsgDeleted)
	return nil
}

func trim(v Variant) {
	common := v.common()
	common.Description = strings.TrimSpace(common.Description)
	common.Amount = strings.TrimSpace(common.Amount)
	common.Date = strings.TrimSpace(common.Date)
	*v.counterparty() = strings.TrimSpace(*v.counterparty())
}
