package api

import "net/http"

// RequestSizeLimit caps request body size. Multipart parsing surfaces the
// overflow as *http.MaxBytesError, which the handlers map to 413.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
