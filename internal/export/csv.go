// Package export renders record sets as CSV and support records as HTML
// receipts.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"registros/internal/core"
)

const (
	CSVFilename = "registros_contables.csv"
	CSVMimeType = "text/csv; charset=utf-8"
)

var ErrNothingToExport = errors.New("no hay registros para exportar")

var header = []string{"ID", "Fecha", "Descripción", "Monto", "Tipo", "Entidad", "Método de Pago"}

// CSV writes one row per record, in the given order, after the header.
// Fecha is the creation time as a d/m/yyyy date in loc. Description and
// counterparty are always quoted. Amounts that are not numbers keep their
// stored text.
func CSV(w io.Writer, records []core.Record, loc *time.Location) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, r := range records {
		fields := []string{
			r.ID,
			LocaleDate(r.Created().In(loc)),
			quote(r.Description),
			amountField(r.Amount),
			r.Category.Label(),
			quote(r.CounterpartyName),
			r.PaymentMethod.Label(),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// amountField writes two decimals, or the stored text of an amount that
// is not a number.
func amountField(a core.Amount) string {
	if a.Valid() {
		return a.Fixed()
	}
	raw := a.String()
	if strings.ContainsAny(raw, ",\"\r\n") {
		return quote(raw)
	}
	return raw
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// LocaleDate formats t as day/month/year without padding, e.g. 5/1/2024.
func LocaleDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

// Row is one parsed CSV data line.
type Row struct {
	ID           string
	Fecha        string
	Descripcion  string
	Monto        string
	Tipo         string
	Entidad      string
	MetodoDePago string
}

// ParseCSV reads back a document produced by CSV.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.New("parse csv: missing header")
	}
	for i, h := range header {
		if lines[0][i] != h {
			return nil, fmt.Errorf("parse csv: unexpected header %q", lines[0][i])
		}
	}
	rows := make([]Row, 0, len(lines)-1)
	for _, l := range lines[1:] {
		rows = append(rows, Row{
			ID:           l[0],
			Fecha:        l[1],
			Descripcion:  l[2],
			Monto:        l[3],
			Tipo:         l[4],
			Entidad:      l[5],
			MetodoDePago: l[6],
		})
	}
	return rows, nil
}
