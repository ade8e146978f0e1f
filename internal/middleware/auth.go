package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
)

const sessionName = "session"

type contextKey int

const userIDKey contextKey = iota

type AuthMiddleware struct {
	store sessions.Store
}

func NewAuthMiddleware(store sessions.Store) *AuthMiddleware {
	return &AuthMiddleware{
		store: store,
	}
}

// RequireAuth redirects anonymous requests to the login page, carrying the
// requested path in the next parameter.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.GetUserID(r)
		if !ok {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginURL is the login page with a return path.
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return "/login/"
	}
	return "/login/?next=" + url.QueryEscape(next)
}

// UserIDFromContext returns the user set by RequireAuth.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

func (m *AuthMiddleware) GetUserID(r *http.Request) (int, bool) {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return userID, true
	}

	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}

	auth, _ := session.Values["authenticated"].(bool)
	userID, ok := session.Values["user_id"].(int)
	if !auth || !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func (m *AuthMiddleware) SetUserSession(w http.ResponseWriter, r *http.Request, userID int) error {
	session, err := m.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}

	session.Values["authenticated"] = true
	session.Values["user_id"] = userID

	return session.Save(r, w)
}

func (m *AuthMiddleware) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}

	session.Values["authenticated"] = false
	delete(session.Values, "user_id")
	session.Options.MaxAge = -1

	return session.Save(r, w)
}
