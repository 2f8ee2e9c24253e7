package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"traind/pkg/types"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsReadLimit    = 4096
)

// The daemon serves a local editor tool; cross-origin checks would only
// get in the way of editor webviews.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSink adapts a WebSocket connection to the broadcaster's Sink.
// Writes are serialized; gorilla connections allow one writer at a time.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *wsSink) sendText(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// handleGenericWS is the editor's connection check channel: "ping" gets
// "pong", anything else echoes back.
func handleGenericWS(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied with an HTTP error.
			return
		}
		wsConnectionsTotal.WithLabelValues("generic").Inc()
		wsActive.Inc()
		defer wsActive.Dec()
		defer conn.Close()
		conn.SetReadLimit(wsReadLimit)
		closeOnShutdown(r.Context(), conn)

		sink := &wsSink{conn: conn}
		for {
			kind, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind != websocket.TextMessage {
				continue
			}
			reply := "Echo: " + string(msg)
			if string(msg) == "ping" {
				reply = "pong"
			}
			if err := sink.sendText(reply); err != nil {
				return
			}
		}
	}
}

// handleTrainingWS streams progress frames for one job. The connection
// is subscribed for its whole lifetime; the current status goes out
// first so late joiners are not blind until the next epoch.
func handleTrainingWS(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "training_id")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		wsConnectionsTotal.WithLabelValues("training").Inc()
		wsActive.Inc()
		defer wsActive.Dec()
		defer conn.Close()
		conn.SetReadLimit(wsReadLimit)
		closeOnShutdown(r.Context(), conn)

		sink := &wsSink{conn: conn}
		if job, err := svc.TrainingJob(id); err == nil {
			// Bulk config sections never travel over the socket.
			job.Config = nil
			job.DatasetConfig = nil
			job.ValidationConfig = nil
			frame := types.ProgressFrame{
				Type:       frameTypeFor(job.Status),
				TrainingID: id,
				Data:       job,
			}
			if err := sink.Send(frame); err != nil {
				return
			}
		}

		svc.Subscribe(id, sink)
		defer svc.Unsubscribe(id, sink)

		// Drain the read side until the peer goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// closeOnShutdown tears the connection down when the request context or
// the daemon's base context ends, unblocking the reader loop.
func closeOnShutdown(reqCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := linkedContext(reqCtx)
	go func() {
		defer cancel()
		<-ctx.Done()
		conn.Close()
	}()
}

func frameTypeFor(state types.JobState) string {
	switch state {
	case types.JobCompleted:
		return types.FrameComplete
	case types.JobFailed:
		return types.FrameFailed
	case types.JobCancelled:
		return types.FrameCancelled
	default:
		return types.FrameProgress
	}
}
