package controllers

import (
	"context"
	"net/http"
	"strings"

	"eventure_server/models"
	"eventure_server/services"
	"eventure_server/utils"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// AuthMiddleware resolves the Authorization bearer token to an active user
// and stores it on the request context. Requests without a valid token get
// a 401 and never reach the handler.
func AuthMiddleware(users *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			user, err := users.ResolveToken(r.Context(), token)
			if err != nil {
				utils.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
		})
	}
}

// CurrentUser returns the authenticated user placed on the context by
// AuthMiddleware.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}
