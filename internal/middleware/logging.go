package middleware

import (
	"net/http"
	"time"

	"newsfeed/internal/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request, tagged with the chi request ID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.With("request_id", chimw.GetReqID(r.Context())).
			Infof("%s %s %d %dB %s", r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start))
	})
}
