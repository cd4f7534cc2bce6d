package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"registros/internal/core"
	"registros/internal/form"
	"registros/internal/identity"
	applog "registros/internal/log"
	"registros/internal/records"
	"registros/internal/session"
)

const (
	msgBlocked      = "No se pudo iniciar la sesión. Recargue la página para intentarlo de nuevo."
	msgListFailed   = "No se pudieron cargar los registros."
	msgStaleList    = "No se pudo actualizar la lista. Se muestra el último estado conocido."
	msgBadRequest   = "Formato de solicitud no válido."
	msgNotFound     = "El registro no existe."
	msgRenderFailed = "No se pudo mostrar la página."
)

// session opens the session of the request's identity. On failure the
// blocking page has been written and ok is false.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Context, bool) {
	sc, err := s.sessions.Open(r.Context(), identity.UserID(r.Context()))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Session unavailable",
			applog.FieldOperation, applog.OpStartup,
			applog.FieldErrorType, applog.ErrorTypeSession,
			applog.FieldError, err)
		var buf bytes.Buffer
		if terr := s.templates.ExecuteTemplate(&buf, "blocked.html", pageView{Blocked: msgBlocked}); terr != nil {
			http.Error(w, msgBlocked, http.StatusServiceUnavailable)
			return nil, false
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if isHTMX(r) {
			// Replace the whole page; the app cannot continue.
			w.Header().Set("HX-Retarget", "body")
			w.Header().Set("HX-Reswap", "innerHTML")
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = buf.WriteTo(w)
		return nil, false
	}
	return sc, true
}

func (s *Server) controller(sc *session.Context) *form.Controller {
	return form.NewController(sc,
		form.WithClock(s.now),
		form.WithLocation(s.loc),
		form.WithLogger(s.logger))
}

// render executes a template into a buffer so that a failing template
// never produces a half-written response.
func (s *Server) render(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed",
			applog.FieldOperation, applog.OpRender,
			applog.FieldErrorType, applog.ErrorTypeTemplate,
			"template", name,
			applog.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) list(ctx context.Context, sc *session.Context) listView {
	recs, err := sc.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list records",
			applog.NewFields().WithOperation(applog.OpList).WithUser(sc.UserID()).WithError(err)...)
		v := newListView(nil)
		v.Notice = msgListFailed
		return v
	}
	return newListView(recs)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	ctrl := s.controller(sc)
	ctrl.Reset(CategoryParam(r.URL.Query()))

	page := pageView{
		Form:   newFormView(ctrl.Values(), ctrl.Status(), nil),
		List:   s.list(r.Context(), sc),
		Now:    s.now().In(s.loc),
		Stream: true,
	}
	body, err := s.render(r.Context(), "index.html", page)
	if err != nil {
		http.Error(w, msgRenderFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleForm returns a blank form for the requested category.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	ctrl := s.controller(sc)
	cat := CategoryParam(r.URL.Query())
	ctrl.Reset(cat)

	body, err := s.render(r.Context(), "form", newFormView(ctrl.Values(), ctrl.Status(), nil))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	NewHTMXResponse().TriggerFormReset(string(cat)).BodyHTML(body).Write(w)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := s.render(r.Context(), "records", s.list(r.Context(), sc))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	in, err := ParseRecordInput(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Parse record input failed", applog.FieldError, err)
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	ctrl := s.controller(sc)
	cat, err := core.ParseCategory(in.Category)
	if err != nil {
		UnprocessableEntityError("Tipo de registro no válido.").Write(w)
		return
	}
	_ = ctrl.SetCategory(cat)
	ctrl.SetDescription(in.Description)
	ctrl.SetName(in.Name)
	ctrl.SetAmount(in.Amount)
	// The rendered form always sends the date; an empty one is a cleared field.
	ctrl.SetDate(in.Date)
	if in.PaymentMethod != "" {
		ctrl.SetPaymentMethod(core.PaymentMethod(in.PaymentMethod))
	}
	ctrl.SetAttachment(in.Attachment)

	id, submitErr := ctrl.Submit(r.Context())
	status := ctrl.Status()

	if !isHTMX(r) {
		s.respondPlain(w, r, status, submitErr)
		return
	}

	body, err := s.render(r.Context(), "form", newFormView(ctrl.Values(), status, submitErr))
	if err != nil {
		InternalServerError(msgRenderFailed).Write(w)
		return
	}

	resp := NewHTMXResponse().BodyHTML(body)
	var ve *form.ValidationError
	switch {
	case submitErr == nil:
		resp.TriggerRecordsChanged("created", id).
			TriggerFormReset(string(cat)).
			TriggerSuccessNotification(status.Message)
	case errors.As(submitErr, &ve):
		resp.Status(http.StatusUnprocessableEntity).TriggerErrorNotification(status.Message)
	default:
		resp.Status(http.StatusInternalServerError).TriggerErrorNotification(status.Message)
	}
	resp.Write(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	ctrl := s.controller(sc)
	err := ctrl.Delete(r.Context(), id)
	status := ctrl.Status()

	if !isHTMX(r) {
		s.respondPlain(w, r, status, err)
		return
	}
	switch {
	case err == nil:
		// Empty body: the row swaps itself out.
		NewHTMXResponse().
			TriggerRecordsChanged("deleted", id).
			TriggerSuccessNotification(status.Message).
			Write(w)
	case errors.Is(err, records.ErrNotFound):
		NotFoundError(status.Message).Write(w)
	default:
		InternalServerError(status.Message).Write(w)
	}
}

// respondPlain answers form posts made without htmx with a redirect on
// success and a plain status page otherwise.
func (s *Server) respondPlain(w http.ResponseWriter, r *http.Request, status form.Status, err error) {
	var ve *form.ValidationError
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.As(err, &ve):
		http.Error(w, status.Message, http.StatusUnprocessableEntity)
	case errors.Is(err, records.ErrNotFound):
		http.Error(w, msgNotFound, http.StatusNotFound)
	default:
		http.Error(w, status.Message, http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the record store and the rate limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	switch {
	case s.pinger == nil:
		checks["store"] = "not_configured"
	default:
		if err := s.pinger.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}
	suspicious, blocked := s.detector.Counts()
	checks["security"] = map[string]any{"suspicious": suspicious, "blocked": blocked}
	checks["requests"] = s.tracer.Metrics()

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
