package http

import (
	"errors"
	"strings"
	"time"

	"registros/internal/core"
	"registros/internal/form"
)

// rowView is one line of the record list.
type rowView struct {
	ID                string
	Description       string
	Amount            string
	Invalid           bool
	Category          core.Category
	CategoryLabel     string
	Counterparty      string
	CounterpartyLabel string
	PaymentMethod     string
	EntryDate         string
	IsSupport         bool
}

// listView is the record list with its balance.
type listView struct {
	Rows            []rowView
	Balance         string
	BalanceNegative bool
	Summary         core.Summary
	Notice          string
}

type categoryTab struct {
	Category core.Category
	Label    string
	Active   bool
}

type formView struct {
	form.Values
	Tabs   []categoryTab
	Status form.Status
	Errors map[string]string
}

type pageView struct {
	Form    formView
	List    listView
	Now     time.Time
	Stream  bool
	Blocked string
}

// newListView renders records in the order given, which callers keep
// newest first.
func newListView(records []core.Record) listView {
	s := core.Summarize(records)
	v := listView{
		Rows:            make([]rowView, 0, len(records)),
		Balance:         s.Balance.Dollars(),
		BalanceNegative: s.Balance.IsNegative(),
		Summary:         s,
	}
	for _, r := range records {
		v.Rows = append(v.Rows, rowView{
			ID:                r.ID,
			Description:       r.Description,
			Amount:            amountText(r.Category, r.Amount),
			Invalid:           !r.Amount.Valid(),
			Category:          r.Category,
			CategoryLabel:     r.Category.Label(),
			Counterparty:      r.CounterpartyName,
			CounterpartyLabel: r.Category.CounterpartyLabel(),
			PaymentMethod:     r.PaymentMethod.Label(),
			EntryDate:         r.EntryDate.String(),
			IsSupport:         r.Category == core.Support,
		})
	}
	return v
}

// amountText signs the amount by category. Invalid amounts keep their
// stored text.
func amountText(c core.Category, a core.Amount) string {
	if !a.Valid() {
		return a.String()
	}
	if c.Positive() {
		return "+" + a.Dollars()
	}
	return "-" + a.Dollars()
}

func newFormView(values form.Values, status form.Status, err error) formView {
	v := formView{Values: values, Status: status}
	for _, c := range core.Categories() {
		v.Tabs = append(v.Tabs, categoryTab{Category: c, Label: c.Label(), Active: c == values.Category})
	}
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		v.Errors = make(map[string]string, len(ve.Fields))
		for _, f := range ve.Fields {
			v.Errors[inputName(f.Field)] = f.Message
		}
	}
	return v
}

// inputName maps a form struct field to the name of its HTML input.
func inputName(field string) string {
	switch field {
	case "Employer", "Vendor", "Companion":
		return "name"
	case "PaymentMethod":
		return "payment_method"
	}
	return strings.ToLower(field)
}
