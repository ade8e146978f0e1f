package handler

import (
	"errors"
	"net"
	"net/http"
	"time"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/middleware"
	"newsfeed/internal/service"
	"newsfeed/pkg/ratelimit"
)

const (
	loginAttempts = 5
	loginWindow   = 15 * time.Minute
)

type AuthHandler struct {
	authService    *service.AuthService
	authMiddleware *middleware.AuthMiddleware
	renderer       *Renderer
	limiter        *ratelimit.Limiter
}

func NewAuthHandler(
	authService *service.AuthService,
	authMiddleware *middleware.AuthMiddleware,
	renderer *Renderer,
	limiter *ratelimit.Limiter,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		authMiddleware: authMiddleware,
		renderer:       renderer,
		limiter:        limiter,
	}
}

func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authMiddleware.GetUserID(r); ok {
		http.Redirect(w, r, "/newsfeed/all/", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login/", http.StatusFound)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderer.Render(w, r, http.StatusOK, "register", registerPage{})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	page := registerPage{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
	}

	user, err := h.authService.Register(r.Context(), page.Username, page.Email, r.FormValue("password"))
	if err != nil {
		status := http.StatusBadRequest
		if !isFormError(err) {
			logger.Errorf("Error registering %s: %v", page.Username, err)
			status = http.StatusInternalServerError
		}
		page.Error = userMessage(err)
		h.renderer.Render(w, r, status, "register", page)
		return
	}

	if err := h.authMiddleware.SetUserSession(w, r, user.ID); err != nil {
		logger.Errorf("Failed to set session for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/newsfeed/all/", http.StatusFound)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderer.Render(w, r, http.StatusOK, "login", loginPage{Next: r.URL.Query().Get("next")})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	page := loginPage{
		Next:     r.FormValue("next"),
		Username: r.FormValue("username"),
	}

	key := clientKey(r)
	if !h.limiter.Allow(key, loginAttempts, loginWindow) {
		logger.Warnf("Login rate limit exceeded for %s", key)
		page.Error = "Too many login attempts. Please try again later."
		h.renderer.Render(w, r, http.StatusTooManyRequests, "login", page)
		return
	}

	user, err := h.authService.Authenticate(r.Context(), page.Username, r.FormValue("password"))
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			logger.Errorf("Error authenticating %s: %v", page.Username, err)
			status = http.StatusInternalServerError
		}
		page.Error = "Invalid login"
		h.renderer.Render(w, r, status, "login", page)
		return
	}

	h.limiter.Reset(key)
	if err := h.authMiddleware.SetUserSession(w, r, user.ID); err != nil {
		logger.Errorf("Failed to set session for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Infof("User %s logged in", user.Username)
	http.Redirect(w, r, safeNext(page.Next), http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authMiddleware.ClearSession(w, r); err != nil {
		logger.Warnf("Error clearing session: %v", err)
	}
	http.Redirect(w, r, "/login/", http.StatusFound)
}

func isFormError(err error) bool {
	return errors.Is(err, domain.ErrInvalidUsername) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidPassword) ||
		errors.Is(err, domain.ErrUserAlreadyExists)
}

// clientKey identifies the caller for rate limiting. RealIP has already
// rewritten RemoteAddr when a proxy header was present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
