package http

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"time"

	"registros/internal/feed"
	applog "registros/internal/log"
)

// EventSnapshot names the server-sent event carrying a rendered list.
const EventSnapshot = "snapshot"

// handleStream pushes the rendered record list every time the user's
// record set changes. The subscription ends with the request.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	sub, err := sc.Subscribe(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Subscribe failed",
			applog.NewFields().WithOperation(applog.OpSubscribe).WithUser(sc.UserID()).WithError(err)...)
		InternalServerError(msgListFailed).Write(w)
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.WarnContext(ctx, "Streaming unsupported", applog.FieldError, err)
		return
	}

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			body, err := s.render(ctx, "records", snapshotView(snap))
			if err != nil {
				return
			}
			if err := writeEvent(w, EventSnapshot, body); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func snapshotView(snap feed.Snapshot) listView {
	v := newListView(snap.Records)
	if snap.Err != nil {
		v.Notice = msgStaleList
	}
	return v
}

// writeEvent writes one server-sent event. Every line of data gets its own
// data field so multi-line HTML survives framing.
func writeEvent(w io.Writer, event string, data []byte) error {
	var buf bytes.Buffer
	buf.WriteString("event: " + event + "\n")
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), len(data)+1)
	for sc.Scan() {
		buf.WriteString("data: ")
		buf.Write(sc.Bytes())
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
