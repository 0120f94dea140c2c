package cmd

import (
	"net/http"
	"time"

	"github.com/mordilloSan/go_logger/logger"

	"github.com/mordilloSan/staticserver/storage"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(p []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(p)
	sr.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (s *Server) recordAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		if !s.access.Record(storage.AccessRecord{
			Time:     start,
			Method:   r.Method,
			Path:     r.URL.Path,
			Status:   status,
			Bytes:    rec.bytes,
			Encoding: w.Header().Get("Content-Encoding"),
			Duration: time.Since(start),
		}) {
			logger.Debugf("access record for %s dropped", r.URL.Path)
		}
	})
}
