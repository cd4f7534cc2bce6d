package core

import "testing"

func rec(id string, c Category, cents int64, created int64) Record {
	return Record{ID: id, Category: c, Amount: AmountFromCents(cents), CreatedAt: created}
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    string
	}{
		{"empty", nil, "0.00"},
		{"income and expense", []Record{rec("a", Income, 100000, 1), rec("b", Expense, 25000, 2)}, "750.00"},
		{"support adds", []Record{rec("a", Support, 5050, 1)}, "50.50"},
		{"negative", []Record{rec("a", Expense, 4000, 1)}, "-40.00"},
		{
			"invalid skipped",
			[]Record{rec("a", Income, 1000, 1), {ID: "b", Category: Expense, Amount: InvalidAmount("abc")}},
			"10.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Balance(tt.records).Fixed(); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBalanceExactDecimals(t *testing.T) {
	a, _ := ParseAmount("0.1")
	b, _ := ParseAmount("0.2")
	got := Balance([]Record{{Category: Income, Amount: a}, {Category: Income, Amount: b}})
	if got.String() != "0.3" {
		t.Fatalf("got %s, want 0.3", got.String())
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Record{
		rec("a", Income, 100000, 1),
		rec("b", Expense, 25000, 2),
		rec("c", Support, 5000, 3),
		{ID: "d", Category: Expense, Amount: InvalidAmount("?")},
	})
	if s.Count != 4 || s.Skipped != 1 {
		t.Fatalf("count=%d skipped=%d", s.Count, s.Skipped)
	}
	if s.Balance.Fixed() != "800.00" {
		t.Fatalf("balance %s", s.Balance.Fixed())
	}
	if s.Expense.Fixed() != "250.00" {
		t.Fatalf("expense %s", s.Expense.Fixed())
	}
}

func TestSortByRecency(t *testing.T) {
	in := []Record{rec("a", Income, 1, 100), rec("b", Income, 1, 300), rec("c", Income, 1, 200), rec("d", Income, 1, 300)}
	got := SortByRecency(in)
	want := []string{"d", "b", "c", "a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
	if in[0].ID != "a" {
		t.Fatal("input must not be reordered")
	}
}
