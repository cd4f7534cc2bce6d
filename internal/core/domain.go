package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Category = "ingreso"
	Expense Category = "gasto"
	Support Category = "apoyo"
)

const (
	Cash     PaymentMethod = "efectivo"
	Transfer PaymentMethod = "transferencia"
	Card     PaymentMethod = "tarjeta"
)

// DateLayout is the wire and storage format of an entry date.
const DateLayout = "2006-01-02"

type (
	// Category partitions records by sign convention and field meaning.
	Category string

	PaymentMethod string

	Date struct {
		time.Time
	}

	// Record is a single bookkeeping transaction. Records are created or
	// deleted, never updated in place.
	Record struct {
		ID               string
		Description      string
		Amount           Amount
		Category         Category
		CounterpartyName string // employer, vendor or companion depending on Category
		EntryDate        Date
		PaymentMethod    PaymentMethod
		CreatedAt        int64 // epoch millis
	}
)

var (
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrEmptyDescription     = errors.New("empty description")
	ErrEmptyCounterparty    = errors.New("empty counterparty name")
)

// Categories returns the categories in display order.
func Categories() []Category {
	return []Category{Income, Expense, Support}
}

// ParseCategory accepts the canonical value, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case Income, Expense, Support:
		return true
	}
	return false
}

// Label is the human readable name of the category.
func (c Category) Label() string {
	switch c {
	case Income:
		return "Ingreso"
	case Expense:
		return "Gasto"
	case Support:
		return "Apoyo"
	}
	return string(c)
}

// CounterpartyLabel names what CounterpartyName means for the category.
func (c Category) CounterpartyLabel() string {
	switch c {
	case Income:
		return "Empresa"
	case Expense:
		return "Proveedor"
	case Support:
		return "Acompañante"
	}
	return "Entidad"
}

// Positive reports whether the category adds to the balance.
func (c Category) Positive() bool {
	return c == Income || c == Support
}

// PaymentMethods returns the payment methods allowed for the category.
// Cash is always first and is the default.
func (c Category) PaymentMethods() []PaymentMethod {
	switch c {
	case Income, Support:
		return []PaymentMethod{Cash, Transfer}
	case Expense:
		return []PaymentMethod{Cash, Card}
	}
	return nil
}

// Allows reports whether m is a valid payment method for the category.
func (c Category) Allows(m PaymentMethod) bool {
	for _, allowed := range c.PaymentMethods() {
		if allowed == m {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Label() string {
	switch m {
	case Cash:
		return "Efectivo"
	case Transfer:
		return "Transferencia"
	case Card:
		return "Tarjeta"
	}
	return string(m)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (r Record) Validate() error {
	if !r.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(r.CounterpartyName) == "" {
		return ErrEmptyCounterparty
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.EntryDate.Validate(); err != nil {
		return err
	}
	if !r.Category.Allows(r.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// Created returns CreatedAt as a time value.
func (r Record) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}
