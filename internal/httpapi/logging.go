package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, request logging is off.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once. Unset means "debug": completion lines go
// out on the debug level and the logger's own level decides whether
// they surface.
var defaultLogLevel = func() LogLevel {
	if v := os.Getenv("TRAIND_HTTP_LOG"); v != "" {
		return parseLevel(v)
	}
	return LevelDebug
}()

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logEventFor picks the event level for a finished request, or nil when
// the request should not be logged. Server errors always win.
func logEventFor(lvl LogLevel, status int) *zerolog.Event {
	switch {
	case zlog == nil || lvl == LevelOff:
		return nil
	case status >= 500:
		return zlog.Error()
	case lvl >= LevelDebug:
		return zlog.Debug()
	case lvl >= LevelInfo:
		return zlog.Info()
	default:
		return nil
	}
}

// requestLogMiddleware emits one completion line per request when a
// logger is installed.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if zlog == nil {
			next.ServeHTTP(w, r)
			return
		}
		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sr, r)

		ev := logEventFor(requestLogLevel(r), sr.status)
		if ev == nil {
			return
		}
		ev = ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sr.status).
			Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			ev = ev.Str("request_id", rid)
		}
		ev.Msg("request complete")
	})
}
