package core

import "sort"

// Summary holds per-category totals for a record set.
type Summary struct {
	Income  Amount
	Expense Amount
	Support Amount
	Balance Amount
	Count   int
	Skipped int // records whose amount is not a number
}

// Balance reduces records to a signed total: income and support add, any
// other category subtracts. Records with an invalid amount contribute zero.
// The empty set has balance 0.
func Balance(records []Record) Amount {
	var total Amount
	for _, r := range records {
		if !r.Amount.Valid() {
			continue
		}
		if r.Category.Positive() {
			total = total.Add(r.Amount)
		} else {
			total = total.Sub(r.Amount)
		}
	}
	return total
}

// Summarize computes category totals and the balance in one pass.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		s.Count++
		if !r.Amount.Valid() {
			s.Skipped++
			continue
		}
		switch r.Category {
		case Income:
			s.Income = s.Income.Add(r.Amount)
		case Support:
			s.Support = s.Support.Add(r.Amount)
		default:
			s.Expense = s.Expense.Add(r.Amount)
		}
	}
	s.Balance = s.Income.Add(s.Support).Sub(s.Expense)
	return s
}

// SortByRecency returns a copy of records ordered by CreatedAt, newest
// first. Records created in the same millisecond are ordered by ID,
// descending, so the order is reproducible.
func SortByRecency(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Find returns the record with the given id.
func Find(records []Record, id string) (Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
