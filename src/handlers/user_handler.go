// backend/src/handlers/user_handler.go
package handlers

import (
	"context"
	"regexp"

	"github.com/username/smsledger/backend/src/security"
)

type contextKey string

const userIDContextKey contextKey = "userID"

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,50}$`)
var passwordRegex = regexp.MustCompile(`^.{6,}$`)

type UserHandler struct {
	authService *security.AuthService
}

func NewUserHandler(authService *security.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// GetUserIDFromContext returns the authenticated user id placed in the
// request context by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
