package middleware

import "net/http"

// statusRecorder remembers the status and body size a handler produced.
// A handler that writes without calling WriteHeader gets 200.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	size    int64
	started bool
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.started {
		return
	}
	s.started = true
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	s.started = true
	n, err := s.ResponseWriter.Write(p)
	s.size += int64(n)
	return n, err
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(path) >= len(p) && path[:len(p)] == p {
			return true
		}
	}
	return false
}
