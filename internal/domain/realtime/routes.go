package realtime

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns realtime router. Browsers cannot set headers on a websocket
// handshake, so a token query parameter is promoted to the Authorization header.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(tokenFromQuery)
	r.Use(authMiddleware)

	r.Get("/", h.WebSocket)

	return r
}

func tokenFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		next.ServeHTTP(w, r)
	})
}
