package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type logCall struct {
	level string
	msg   string
	args  []any
}

type fakeLogger struct {
	calls []logCall
}

func (l *fakeLogger) Info(msg string, v ...any) {
	l.calls = append(l.calls, logCall{"info", msg, v})
}

func (l *fakeLogger) Error(msg string, v ...any) {
	l.calls = append(l.calls, logCall{"error", msg, v})
}

type observerFunc func(method string, status int, d time.Duration)

func (f observerFunc) ObserveRequest(method string, status int, d time.Duration) { f(method, status, d) }

func TestLogger(t *testing.T) {
	serve := func(t *testing.T, h http.Handler, l *fakeLogger, o requestObserver) (*http.Response, string) {
		rec := httptest.NewRecorder()
		Logger(l, o)(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		resp := rec.Result()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")

		return resp, string(body)
	}

	t.Run("log request", func(t *testing.T) {
		l := &fakeLogger{}
		observed := 0
		o := observerFunc(func(method string, status int, d time.Duration) {
			observed++
			require.Equal(t, "GET", method)
			require.Equal(t, http.StatusTeapot, status)
		})

		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, err := w.Write([]byte("hi"))
			require.NoError(t, err, "should write response")
		})

		resp, body := serve(t, h, l, o)

		require.Equal(t, http.StatusTeapot, resp.StatusCode)
		require.Equal(t, "hi", body)
		require.Equal(t, 1, observed, "observer should be called once")

		require.Len(t, l.calls, 1, "logger should be called once")
		call := l.calls[0]
		require.Equal(t, "info", call.level)
		require.Equal(t, "got HTTP request", call.msg)
		require.Len(t, call.args, 12, "logger should log 6 fields")
		require.Equal(t, "method", call.args[0])
		require.Equal(t, "GET", call.args[1])
		require.Equal(t, "uri", call.args[2])
		require.Equal(t, "/test", call.args[3])
		require.Equal(t, "duration", call.args[4])
		require.NotEmpty(t, call.args[5], "duration should not be empty")
		require.Equal(t, "status", call.args[6])
		require.Equal(t, http.StatusTeapot, call.args[7])
		require.Equal(t, "size", call.args[8])
		require.Equal(t, 2, call.args[9], "size should be 2 (length of 'hi')")
		require.Equal(t, "request_id", call.args[10])
	})

	t.Run("server errors logged as errors", func(t *testing.T) {
		l := &fakeLogger{}
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		resp, _ := serve(t, h, l, nil)

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Len(t, l.calls, 1)
		require.Equal(t, "error", l.calls[0].level)
	})

	t.Run("status defaults to 200", func(t *testing.T) {
		l := &fakeLogger{}
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

		serve(t, h, l, nil)

		require.Equal(t, http.StatusOK, l.calls[0].args[7])
	})
}
