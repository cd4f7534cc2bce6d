// Package form holds the in-progress record of the entry form. Each
// category has its own form shape and rules; the Controller switches
// between them and submits to the record store.
package form

import "registros/internal/core"

// Common are the fields every category shares. Values are kept as typed
// so that a half-filled form can be rendered back unchanged.
type Common struct {
	Description string `validate:"required,max=200" label:"Descripción"`
	Amount      string `validate:"required,amount" label:"Monto"`
	Date        string `validate:"required,datetime=2006-01-02" label:"Fecha"`
	Attachment  string `validate:"-"`
}

type IncomeForm struct {
	Common
	Employer      string `validate:"required" label:"Empresa"`
	PaymentMethod string `validate:"required,oneof=efectivo transferencia" label:"Método de pago"`
}

type ExpenseForm struct {
	Common
	Vendor        string `validate:"required" label:"Proveedor"`
	PaymentMethod string `validate:"required,oneof=efectivo tarjeta" label:"Método de pago"`
}

type SupportForm struct {
	Common
	Companion     string `validate:"required" label:"Acompañante"`
	PaymentMethod string `validate:"required,oneof=efectivo transferencia" label:"Método de pago"`
}

// Variant is one of *IncomeForm, *ExpenseForm or *SupportForm.
type Variant interface {
	Category() core.Category
	common() *Common
	counterparty() *string
	payment() *string
}

func (*IncomeForm) Category() core.Category  { return core.Income }
func (*ExpenseForm) Category() core.Category { return core.Expense }
func (*SupportForm) Category() core.Category { return core.Support }

func (f *IncomeForm) common() *Common  { return &f.Common }
func (f *ExpenseForm) common() *Common { return &f.Common }
func (f *SupportForm) common() *Common { return &f.Common }

func (f *IncomeForm) counterparty() *string  { return &f.Employer }
func (f *ExpenseForm) counterparty() *string { return &f.Vendor }
func (f *SupportForm) counterparty() *string { return &f.Companion }

func (f *IncomeForm) payment() *string  { return &f.PaymentMethod }
func (f *ExpenseForm) payment() *string { return &f.PaymentMethod }
func (f *SupportForm) payment() *string { return &f.PaymentMethod }

// newVariant returns the blank form for c with the category defaults
// applied: description "Apoyo" for support, empty otherwise; empty
// counterparty and amount; the given date; cash.
func newVariant(c core.Category, today core.Date) Variant {
	common := Common{Date: today.String()}
	cash := string(core.Cash)
	switch c {
	case core.Expense:
		return &ExpenseForm{Common: common, PaymentMethod: cash}
	case core.Support:
		common.Description = "Apoyo"
		return &SupportForm{Common: common, PaymentMethod: cash}
	default:
		return &IncomeForm{Common: common, PaymentMethod: cash}
	}
}

// Values is a flat, read-only view of a variant used for rendering.
type Values struct {
	Category          core.Category
	Description       string
	Counterparty      string
	CounterpartyLabel string
	Amount            string
	Date              string
	PaymentMethod     core.PaymentMethod
	PaymentMethods    []core.PaymentMethod
	Attachment        string
}

func valuesOf(v Variant) Values {
	c := v.Category()
	common := v.common()
	return Values{
		Category:          c,
		Description:       common.Description,
		Counterparty:      *v.counterparty(),
		CounterpartyLabel: c.CounterpartyLabel(),
		Amount:            common.Amount,
		Date:              common.Date,
		PaymentMethod:     core.PaymentMethod(*v.payment()),
		PaymentMethods:    c.PaymentMethods(),
		Attachment:        common.Attachment,
	}
}
