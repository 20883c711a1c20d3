package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requireAuth accepts "Authorization: Bearer <token>" and stores the
// verified identity in the request context. Expired and forged tokens get
// the same response.
func (s *HTTPServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w, "Not authenticated")
			return
		}

		id, err := s.users.VerifyToken(r.Context(), token)
		if err != nil {
			writeUnauthorized(w, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), id)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *HTTPServer) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.opts.Observer != nil {
			s.opts.Observer.ObserveRequest("http", route, status, time.Since(start))
		}
		s.logger.Debug(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"took", time.Since(start),
		)
	})
}
