package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type requestObserver interface {
	ObserveRequest(method string, status int, d time.Duration)
}

// Logger logs every request and reports it to observer, if any
func Logger(l logger, o requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK // nothing written
			}

			if o != nil {
				o.ObserveRequest(r.Method, status, duration)
			}

			log := l.Info
			if status >= http.StatusInternalServerError {
				log = l.Error
			}
			log(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", duration,
				"status", status,
				"size", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
