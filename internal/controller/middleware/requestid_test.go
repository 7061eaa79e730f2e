package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"flowplane/internal/logger"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "Generated", incoming: ""},
		{name: "Propagated", incoming: "req-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logger.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if seen == "" {
				t.Fatal("expected request id in context")
			}
			if tt.incoming != "" && seen != tt.incoming {
				t.Errorf("got %q, want %q", seen, tt.incoming)
			}
			if rr.Header().Get(RequestIDHeader) != seen {
				t.Errorf("response header %q does not match context %q", rr.Header().Get(RequestIDHeader), seen)
			}
		})
	}
}
