package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"registros/internal/core"
)

const ReceiptMimeType = "text/html; charset=utf-8"

var ErrNotSupport = errors.New("solo los registros de apoyo tienen recibo")

//go:embed templates/receipt.html
var templatesFS embed.FS

var receiptTmpl = template.Must(template.ParseFS(templatesFS, "templates/receipt.html"))

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// LongDate formats d as "15 de enero de 2024".
func LongDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d de %s de %d", d.Day(), months[d.Month()-1], d.Year())
}

type receiptData struct {
	Date          string
	Description   string
	Companion     string
	PaymentMethod string
	Amount        string
	ID            string
}

// Receipt renders a standalone HTML receipt for a support record. Nothing
// is stored.
func Receipt(w io.Writer, r core.Record) error {
	if r.Category != core.Support {
		return ErrNotSupport
	}
	var buf bytes.Buffer
	err := receiptTmpl.Execute(&buf, receiptData{
		Date:          LongDate(r.EntryDate),
		Description:   r.Description,
		Companion:     r.CounterpartyName,
		PaymentMethod: r.PaymentMethod.Label(),
		Amount:        r.Amount.Dollars(),
		ID:            r.ID,
	})
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// ReceiptFilename returns recibo_apoyo_<description>_<entryDate>.html with
// spaces in the description replaced by underscores.
func ReceiptFilename(r core.Record) string {
	return "recibo_apoyo_" + strings.ReplaceAll(r.Description, " ", "_") + "_" + r.EntryDate.String() + ".html"
}
