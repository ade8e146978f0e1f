package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"newsfeed/config"
)

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title><link>http://example.com</link><description>d</description>
<item><title>Test title</title><link>http://example.com/1</link><description>Test summary</description></item>
</channel></rss>`

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestApp(t *testing.T) *client {
	t.Helper()
	cfg := &config.Config{
		Environment:    "development",
		AppPort:        "8080",
		AppURL:         "http://localhost:8080",
		DatabaseDriver: "sqlite",
		SQLitePath:     filepath.Join(t.TempDir(), "app.db"),
		SessionSecret:  "test-session-secret",
		CSRFSecret:     "test-csrf-secret-32-bytes-long!!",
		FetchTimeout:   5 * time.Second,
		UserAgent:      "newsfeed-test",
	}

	application, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { application.Close() })

	srv := httptest.NewServer(application.Router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) get(path string) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		c.t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(c.t, resp)
}

func (c *client) post(path string, form url.Values) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.PostForm(c.base+path, form)
	if err != nil {
		c.t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(c.t, resp)
}

func (c *client) register(username string) {
	c.t.Helper()
	resp, body := c.post("/register/", url.Values{
		"username": {username},
		"email":    {username + "@email.com"},
		"password": {"test1234"},
	})
	if resp.StatusCode != http.StatusFound {
		c.t.Fatalf("register: status %d: %s", resp.StatusCode, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status: got %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != want {
		t.Fatalf("Location: got %q, want %q", loc, want)
	}
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnonymousRedirects(t *testing.T) {
	c := newTestApp(t)

	resp, _ := c.get("/")
	expectRedirect(t, resp, "/login/")

	resp, _ = c.get("/newsfeed/all/")
	expectRedirect(t, resp, "/login/?next=%2Fnewsfeed%2Fall%2F")

	resp, body := c.get("/login/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `name="username"`) {
		t.Errorf("login page: %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Error("missing security headers")
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	c := newTestApp(t)
	c.register("test")

	resp, _ := c.get("/")
	expectRedirect(t, resp, "/newsfeed/all/")

	resp, body := c.post("/register/", url.Values{"username": {"test"}, "password": {"test1234"}})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "already exists") {
		t.Errorf("duplicate register: %d", resp.StatusCode)
	}

	resp, _ = c.get("/logout/")
	expectRedirect(t, resp, "/login/")
	resp, _ = c.get("/newsfeed/all/")
	if resp.StatusCode != http.StatusFound {
		t.Errorf("after logout: got %d", resp.StatusCode)
	}

	resp, body = c.post("/login/", url.Values{"username": {"test"}, "password": {"wrong-password"}})
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "Invalid login") {
		t.Errorf("bad login: %d", resp.StatusCode)
	}

	resp, _ = c.post("/login/", url.Values{
		"username": {"test"},
		"password": {"test1234"},
		"next":     {"/newsfeed/sources/"},
	})
	expectRedirect(t, resp, "/newsfeed/sources/")

	resp, _ = c.post("/login/", url.Values{
		"username": {"test"},
		"password": {"test1234"},
		"next":     {"//evil.example"},
	})
	expectRedirect(t, resp, "/newsfeed/all/")
}

func TestLoginRateLimit(t *testing.T) {
	c := newTestApp(t)

	var resp *http.Response
	for i := 0; i < 6; i++ {
		resp, _ = c.post("/login/", url.Values{"username": {"nobody"}, "password": {"x"}})
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("sixth attempt: got %d, want 429", resp.StatusCode)
	}
}

var commentsLink = regexp.MustCompile(`/newsfeed/(\d+)/comments/`)
var likeLink = regexp.MustCompile(`/newsfeed/comments/(\d+)/`)

func TestNewsfeedFlow(t *testing.T) {
	c := newTestApp(t)
	feed := feedServer(t)
	c.register("test")

	resp, _ := c.post("/newsfeed/sources/add_source/", url.Values{
		"source_name": {"test"},
		"source_url":  {feed.URL},
	})
	expectRedirect(t, resp, "/newsfeed/sources/")

	resp, body := c.post("/newsfeed/sources/add_source/", url.Values{
		"source_name": {"bad"},
		"source_url":  {"not a url"},
	})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "valid URL") {
		t.Errorf("invalid source: %d", resp.StatusCode)
	}

	resp, body = c.get("/newsfeed/all/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Test title") || !strings.Contains(body, "Test summary") {
		t.Fatalf("newsfeed: %d %s", resp.StatusCode, body)
	}
	m := commentsLink.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("no comments link on newsfeed page")
	}
	itemID := m[1]

	// A second view hits the ETag path and must not duplicate the item.
	_, body = c.get("/newsfeed/all/")
	if n := strings.Count(body, "Test title"); n != 1 {
		t.Errorf("item rendered %d times, want 1", n)
	}

	resp, _ = c.get("/newsfeed/unknown/")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown filter: got %d", resp.StatusCode)
	}

	resp, _ = c.post("/newsfeed/favorite/"+itemID+"/", nil)
	expectRedirect(t, resp, "/newsfeed/all/")
	_, body = c.get("/newsfeed/favorites/")
	if !strings.Contains(body, "Test title") {
		t.Error("favorite item missing from favorites view")
	}
	resp, body = c.get("/newsfeed/favorites.rss")
	if !strings.Contains(resp.Header.Get("Content-Type"), "rss") || !strings.Contains(body, "<title>Test title</title>") {
		t.Errorf("favorites rss: %s", body)
	}

	resp, _ = c.post("/newsfeed/"+itemID+"/comments/", url.Values{"comment": {"Test comment"}})
	expectRedirect(t, resp, "/newsfeed/"+itemID+"/comments/")
	resp, body = c.post("/newsfeed/"+itemID+"/comments/", url.Values{"comment": {"  "}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank comment: got %d", resp.StatusCode)
	}

	_, body = c.get("/newsfeed/" + itemID + "/comments/")
	if !strings.Contains(body, "Test comment") || !strings.Contains(body, "Like (0)") {
		t.Fatalf("comments page: %s", body)
	}
	lm := likeLink.FindStringSubmatch(body)
	if lm == nil {
		t.Fatal("no like link on comments page")
	}
	resp, _ = c.post("/newsfeed/comments/"+lm[1]+"/", nil)
	expectRedirect(t, resp, "/newsfeed/"+itemID+"/comments/")
	_, body = c.get("/newsfeed/" + itemID + "/comments/")
	if !strings.Contains(body, "Like (1)") {
		t.Error("like counter not incremented")
	}

	resp, _ = c.get("/newsfeed/9999/comments/")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing item: got %d", resp.StatusCode)
	}
}

func TestSourcesExportImportDelete(t *testing.T) {
	c := newTestApp(t)
	c.register("alice")

	c.post("/newsfeed/sources/add_source/", url.Values{"source_name": {"A"}, "source_url": {"https://a.example/rss"}})

	resp, body := c.get("/newsfeed/sources/export")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: %d", resp.StatusCode)
	}
	var exported struct {
		Sources []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"sources"`
	}
	if err := json.Unmarshal([]byte(body), &exported); err != nil || len(exported.Sources) != 1 {
		t.Fatalf("export body: %s (%v)", body, err)
	}

	payload := `{"sources":[{"name":"A","url":"https://a.example/rss"},{"name":"B","url":"https://b.example/rss"}]}`
	resp, err := c.http.Post(c.base+"/newsfeed/sources/import", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var result map[string]interface{}
	json.Unmarshal([]byte(readBody(t, resp)), &result)
	if result["imported"] != float64(1) || result["errors"] != float64(1) {
		t.Errorf("import result: %v", result)
	}

	resp, err = c.http.Post(c.base+"/newsfeed/sources/import", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed import: got %d", resp.StatusCode)
	}

	_, body = c.get("/newsfeed/sources/")
	ids := regexp.MustCompile(`/newsfeed/sources/delete_source/(\d+)/`).FindAllStringSubmatch(body, -1)
	if len(ids) != 2 {
		t.Fatalf("expected 2 delete links, got %d", len(ids))
	}

	resp, _ = c.post("/newsfeed/sources/delete_source/"+ids[0][1]+"/", nil)
	expectRedirect(t, resp, "/newsfeed/sources/")

	resp, _ = c.post("/newsfeed/sources/delete_source/"+ids[0][1]+"/", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: got %d", resp.StatusCode)
	}
}
