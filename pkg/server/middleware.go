package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/imgutil"
	"github.com/shouni/gemini-content-studio/pkg/variant"
)

// statusRecorder は応答ステータスを記録します。ストリーミングのため Flush を委譲します。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.InfoContext(r.Context(), "HTTPリクエスト",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func isSelectionError(err error) bool {
	return errors.Is(err, variant.ErrUnknownPattern) ||
		errors.Is(err, variant.ErrNoImage) ||
		errors.Is(err, generator.ErrUnknownItem) ||
		errors.Is(err, imgutil.ErrNoImages)
}
