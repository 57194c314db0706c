package httpapi

import (
	"context"
	"net/http"
	"strings"

	"nutriplan/internal/auth"

	"github.com/julienschmidt/httprouter"
)

type contextKey string

const userIDKey contextKey = "userID"

// authenticate verifies the bearer token and stores the user ID in the
// request context. Websocket clients may pass the token as a query parameter
// since browsers cannot set headers on websocket upgrades.
func (s *Server) authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := ""
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		} else if token := r.URL.Query().Get("token"); token != "" {
			tokenString = token
		}

		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		claims, err := auth.VerifyToken(s.jwtSecret, tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		next(w, r.WithContext(ctx), ps)
	}
}

// userIDFrom returns the authenticated user ID stored by authenticate.
func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
