package http

import (
	"bytes"
	"errors"
	"mime"
	"net/http"

	"registros/internal/export"
	applog "registros/internal/log"
	"registros/internal/records"
)

const msgNotSupport = "Solo los registros de apoyo tienen recibo."

// handleExport downloads every record of the user as CSV, newest first.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	recs, err := sc.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Export failed",
			applog.NewFields().WithOperation(applog.OpExport).WithUser(sc.UserID()).WithError(err)...)
		InternalServerError(msgListFailed).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.CSV(&buf, recs, s.loc); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			NewHTMXResponse().
				Status(http.StatusNotFound).
				TriggerNotification(NotificationInfo, "No hay registros para exportar.", 4000).
				BodyHTML([]byte(`<div class="status info">No hay registros para exportar.</div>`)).
				Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Export failed",
			applog.NewFields().WithOperation(applog.OpExport).WithUser(sc.UserID()).WithError(err)...)
		InternalServerError("No se pudo exportar.").Write(w)
		return
	}

	s.logger.InfoContext(ctx, "Records exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldUserID, sc.UserID(),
		"count", len(recs))
	download(w, export.CSVMimeType, export.CSVFilename, buf.Bytes())
}

// handleReceipt downloads the HTML receipt of one support record.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")
	rec, err := sc.Find(ctx, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError(msgNotFound).Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Receipt lookup failed",
			applog.NewFields().WithOperation(applog.OpReceipt).WithUser(sc.UserID()).WithRecordID(id).WithError(err)...)
		InternalServerError(msgListFailed).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.Receipt(&buf, rec); err != nil {
		if errors.Is(err, export.ErrNotSupport) {
			UnprocessableEntityError(msgNotSupport).Write(w)
			return
		}
		s.logger.ErrorContext(ctx, "Receipt rendering failed",
			applog.NewFields().WithOperation(applog.OpReceipt).WithRecordID(id).WithError(err)...)
		InternalServerError("No se pudo generar el recibo.").Write(w)
		return
	}
	download(w, export.ReceiptMimeType, export.ReceiptFilename(rec), buf.Bytes())
}

func download(w http.ResponseWriter, contentType, filename string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
