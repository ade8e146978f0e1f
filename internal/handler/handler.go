package handler

import (
	"net/http"
	"strconv"
	"strings"

	"newsfeed/internal/middleware"

	"github.com/gorilla/mux"
)

type loginPage struct {
	Next     string
	Username string
	Error    string
}

type registerPage struct {
	Username string
	Email    string
	Error    string
}

func userID(r *http.Request) (int, bool) {
	return middleware.UserIDFromContext(r.Context())
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeNext accepts only local absolute paths as redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/newsfeed/all/"
	}
	return next
}
