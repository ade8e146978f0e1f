package email

import (
	"fmt"
	"html"
)

// WelcomeMessage builds the subject and HTML body sent after registration.
func WelcomeMessage(username, appURL string) (string, string) {
	subject := "Welcome to Newsfeed"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account is ready. Add your first RSS source at <a href="%s/newsfeed/sources/">%s</a>.</p>`,
		html.EscapeString(username), appURL, appURL)
	return subject, body
}
