package google

import (
	"fmt"
	"strings"

	"registros/internal/core"
)

func headerRow() []interface{} {
	return []interface{}{"ID", "Usuario", "Fecha", "Descripción", "Monto", "Tipo", "Entidad", "Método de Pago"}
}

// rowFor lays a record out in sheet column order A..H.
func rowFor(userID string, r core.Record) []interface{} {
	return []interface{}{
		r.ID,
		userID,
		r.EntryDate.String(),
		r.Description,
		r.Amount.Fixed(),
		r.Category.Label(),
		r.CounterpartyName,
		r.PaymentMethod.Label(),
	}
}

// findRow returns the zero-based row index whose first cell equals id, or -1.
func findRow(values [][]interface{}, id string) int {
	if id == "" {
		return -1
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}
