package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/service"
	"newsfeed/pkg/datetime"

	"github.com/gorilla/csrf"
)

//go:embed templates/*.html
var templateFS embed.FS

const excerptLength = 300

var pages = []string{
	"login",
	"register",
	"newsfeed",
	"comments",
	"sources",
	"add_source",
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer(formatter *datetime.Formatter) (*Renderer, error) {
	funcs := template.FuncMap{
		"excerpt":   func(s string) string { return service.PlainText(s, excerptLength) },
		"when":      formatter.FormatForDisplay,
		"timestamp": formatter.FormatTimestamp,
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes the named page. data is exposed to the template as .Data
// alongside the CSRF field and the signed-in flag.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	tmpl, ok := rd.pages[name]
	if !ok {
		logger.Errorf("Unknown template %q", name)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	_, signedIn := userID(r)
	view := map[string]interface{}{
		"Data":      data,
		"SignedIn":  signedIn,
		"csrfField": csrf.TemplateField(r),
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		logger.Errorf("Error executing template %s: %v", name, err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrSourceNotFound),
		errors.Is(err, domain.ErrCommentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidComment),
		errors.Is(err, domain.ErrInvalidSourceName),
		errors.Is(err, domain.ErrInvalidSourceURL),
		errors.Is(err, domain.ErrSourceExists):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// userMessage turns a validation error into text for a form.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidUsername):
		return "Enter a valid username (up to 150 characters, no spaces)."
	case errors.Is(err, domain.ErrInvalidEmail):
		return "Enter a valid email address."
	case errors.Is(err, domain.ErrInvalidPassword):
		return fmt.Sprintf("Password must be at least %d characters.", domain.MinPasswordLength)
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return "A user with that username already exists."
	case errors.Is(err, domain.ErrInvalidSourceName):
		return fmt.Sprintf("Source name is required (up to %d characters).", domain.MaxSourceNameLength)
	case errors.Is(err, domain.ErrInvalidSourceURL):
		return "Enter a valid URL."
	case errors.Is(err, domain.ErrSourceExists):
		return "You already follow this source."
	case errors.Is(err, domain.ErrInvalidComment):
		return fmt.Sprintf("Comment must be between 1 and %d characters.", domain.MaxCommentLength)
	}
	return "Something went wrong. Please try again."
}
