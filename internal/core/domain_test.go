package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("got %q", d.String())
	}
	for _, in := range []string{"", "15/01/2024", "2024-13-01", "abc"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) err = %v, want ErrInvalidDate", in, err)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"ingreso", "GASTO", " apoyo "} {
		if _, err := ParseCategory(in); err != nil {
			t.Errorf("ParseCategory(%q) unexpected error %v", in, err)
		}
	}
	if _, err := ParseCategory("otro"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestCategoryPaymentMethods(t *testing.T) {
	cases := []struct {
		c    Category
		want []PaymentMethod
	}{
		{Income, []PaymentMethod{Cash, Transfer}},
		{Expense, []PaymentMethod{Cash, Card}},
		{Support, []PaymentMethod{Cash, Transfer}},
	}
	for _, tc := range cases {
		got := tc.c.PaymentMethods()
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.c, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: got %v, want %v", tc.c, got, tc.want)
			}
		}
	}
	if Expense.Allows(Transfer) {
		t.Fatal("expense must not allow transfer")
	}
	if Income.Allows(Card) {
		t.Fatal("income must not allow card")
	}
}

func TestLabels(t *testing.T) {
	if Income.Label() != "Ingreso" || Expense.Label() != "Gasto" || Support.Label() != "Apoyo" {
		t.Fatal("unexpected category labels")
	}
	if Support.CounterpartyLabel() != "Acompañante" {
		t.Fatalf("got %q", Support.CounterpartyLabel())
	}
	if Card.Label() != "Tarjeta" {
		t.Fatalf("got %q", Card.Label())
	}
}

func validRecord() Record {
	return Record{
		Description:      "Salario",
		Amount:           AmountFromCents(100000),
		Category:         Income,
		CounterpartyName: "ACME",
		EntryDate:        NewDate(2024, 1, 15),
		PaymentMethod:    Transfer,
	}
}

func TestRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutate := []struct {
		name string
		fn   func(*Record)
		want error
	}{
		{"category", func(r *Record) { r.Category = "otro" }, ErrInvalidCategory},
		{"description", func(r *Record) { r.Description = "  " }, ErrEmptyDescription},
		{"counterparty", func(r *Record) { r.CounterpartyName = "" }, ErrEmptyCounterparty},
		{"zero amount", func(r *Record) { r.Amount = Amount{} }, ErrInvalidAmount},
		{"invalid amount", func(r *Record) { r.Amount = InvalidAmount("abc") }, ErrInvalidAmount},
		{"date", func(r *Record) { r.EntryDate = Date{} }, ErrInvalidDate},
		{"payment", func(r *Record) { r.PaymentMethod = Card }, ErrInvalidPaymentMethod},
	}
	for _, tc := range mutate {
		t.Run(tc.name, func(t *testing.T) {
			r := validRecord()
			tc.fn(&r)
			if err := r.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	long := validRecord()
	long.Description = strings.Repeat("x", 201)
	if err := long.Validate(); err == nil {
		t.Fatal("expected error for long description")
	}
}
