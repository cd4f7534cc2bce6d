package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"50.5", "50.50", false},
		{"50,5", "50.50", false},
		{" 1000 ", "1000.00", false},
		{"0.1", "0.10", false},
		{"-40", "-40.00", false},
		{"", "", true},
		{"abc", "", true},
		{"1.2.3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.err {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Fixed() != tt.want {
				t.Fatalf("got %s, want %s", got.Fixed(), tt.want)
			}
		})
	}
}

func TestAmountValidate(t *testing.T) {
	if err := AmountFromCents(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Amount{}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := AmountFromCents(-1).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
	if err := InvalidAmount("x").Validate(); err == nil {
		t.Fatalf("expected error for invalid")
	}
}

func TestAmountDollars(t *testing.T) {
	cases := []struct {
		a    Amount
		want string
	}{
		{AmountFromCents(5050), "$50.50"},
		{Amount{}, "$0.00"},
		{AmountFromCents(-4000), "-$40.00"},
		{InvalidAmount("abc"), "$0.00"},
	}
	for _, tc := range cases {
		if got := tc.a.Dollars(); got != tc.want {
			t.Errorf("Dollars() = %q, want %q", got, tc.want)
		}
	}
}

func TestInvalidAmountKeepsRaw(t *testing.T) {
	a := InvalidAmount("n/a")
	if a.Valid() {
		t.Fatal("expected invalid")
	}
	if a.String() != "n/a" {
		t.Fatalf("got %q", a.String())
	}
	if !a.Decimal().IsZero() {
		t.Fatal("invalid amount must be zero-valued")
	}
}
