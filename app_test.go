package inkpress

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminUser = "admin@example.com"
	testAdminPass = "swordfish"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

func newTestApp(t *testing.T) (*App, *recordingNotifier) {
	t.Helper()
	dir := t.TempDir()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPass), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	cfg := Config{
		SiteName:          "Test Blog",
		SiteURL:           "http://blog.example.com",
		Addr:              ":0",
		DatabasePath:      filepath.Join(dir, "blog.db"),
		UploadDir:         filepath.Join(dir, "uploads"),
		PostsPerPage:      2,
		AdminUser:         testAdminUser,
		AdminPasswordHash: string(hash),
		SessionSecret:     "test-session-secret",
		PostCacheTTL:      time.Minute,
	}

	notifier := &recordingNotifier{}
	a := New(cfg, DefaultViews(cfg), WithNotifier(notifier))
	if err := a.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, notifier
}

// client is a cookie-carrying test client driving the wired Echo
// instance without a listener.
type client struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, a *App) *client {
	return &client{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.app.Echo.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrf returns the current CSRF token, priming the cookie with a GET
// when needed. Echo's CSRF middleware compares the form token against
// the _csrf cookie value.
func (c *client) csrf() string {
	if ck, ok := c.cookies["_csrf"]; ok {
		return ck.Value
	}
	c.get("/dashboard")
	if ck, ok := c.cookies["_csrf"]; ok {
		return ck.Value
	}
	c.t.Fatal("no CSRF cookie issued")
	return ""
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	form.Set("_csrf", c.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return c.do(req)
}

func (c *client) login(user, pass string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.postForm("/dashboard", url.Values{
		"user_email": {user},
		"user_pass":  {pass},
	})
}

func (c *client) mustLogin() {
	c.t.Helper()
	rec := c.login(testAdminUser, testAdminPass)
	if rec.Code != http.StatusOK {
		c.t.Fatalf("login status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Dashboard") {
		c.t.Fatal("login did not reach the dashboard")
	}
}

func (c *client) createPost(title, slug, content string) int64 {
	c.t.Helper()
	rec := c.postForm("/edit/0", url.Values{
		"title":      {title},
		"subHeading": {"sub"},
		"content":    {content},
		"slug":       {slug},
	})
	if rec.Code != http.StatusSeeOther {
		c.t.Fatalf("create post status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get(echo.HeaderLocation)
	var id int64
	if _, err := fmt.Sscanf(loc, "/edit/%d", &id); err != nil || id == 0 {
		c.t.Fatalf("create post redirected to %q, want /edit/<new-id>", loc)
	}
	return id
}

func TestLoginSuccessListsPostsInInsertionOrder(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	cl.createPost("First Post", "first-post", "one")
	cl.createPost("Second Post", "second-post", "two")

	rec := cl.get("/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	first := strings.Index(body, "First Post")
	second := strings.Index(body, "Second Post")
	if first < 0 || second < 0 {
		t.Fatalf("dashboard missing posts: %q", body)
	}
	if first > second {
		t.Error("dashboard posts not in insertion order")
	}
}

func TestLoginWrongPasswordEstablishesNoSession(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)

	rec := cl.login(testAdminUser, "wrong")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200 (login view re-rendered)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Wrong username or password") {
		t.Error("expected login error message")
	}

	// No session was established: admin routes still bounce.
	rec = cl.get("/edit/0")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit after failed login status = %d, want 303", rec.Code)
	}
}

func TestLoginWrongUsernameEstablishesNoSession(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)

	rec := cl.login("intruder@example.com", testAdminPass)
	if !strings.Contains(rec.Body.String(), "Wrong username or password") {
		t.Error("expected login error message")
	}
	rec = cl.get("/edit/0")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit after failed login status = %d, want 303", rec.Code)
	}
}

func TestAdminRoutesRedirectWhenUnauthenticated(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/edit/0"},
		{http.MethodGet, "/edit/1"},
		{http.MethodGet, "/delete/1"},
		{http.MethodGet, "/uploader"},
	}
	for _, p := range paths {
		rec := cl.do(httptest.NewRequest(p.method, p.path, nil))
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s %s status = %d, want 303", p.method, p.path, rec.Code)
			continue
		}
		if loc := rec.Header().Get(echo.HeaderLocation); loc != "/dashboard" {
			t.Errorf("%s %s redirects to %q, want /dashboard", p.method, p.path, loc)
		}
	}
}

func TestDashboardRendersLoginWhenAnonymous(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)

	rec := cl.get("/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "user_pass") {
		t.Error("anonymous dashboard should render the login form")
	}
}

func TestCreatePostRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	id := cl.createPost("Hello World", "hello-world", "# Heading\n\nbody text")

	// The redirect target renders the just-created content.
	rec := cl.get(fmt.Sprintf("/edit/%d", id))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit view status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Hello World") {
		t.Error("edit view missing created title")
	}

	// Public lookups by slug and by id both work immediately.
	for _, path := range []string{"/post/hello-world", fmt.Sprintf("/post/%d", id)} {
		rec = cl.get(path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Hello World") {
			t.Errorf("GET %s missing post title", path)
		}
	}

	// Author comes from the session-bound identity.
	post, err := a.Store.GetPostByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if post.Author != testAdminUser {
		t.Errorf("Author = %q, want %q", post.Author, testAdminUser)
	}
}

func TestEditSaveRedirectsBackToEditView(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	id := cl.createPost("Draft", "draft", "v1")

	rec := cl.postForm(fmt.Sprintf("/edit/%d", id), url.Values{
		"title":      {"Draft"},
		"subHeading": {"sub"},
		"content":    {"v2"},
		"slug":       {"draft"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != fmt.Sprintf("/edit/%d", id) {
		t.Errorf("update redirects to %q, want the same edit view", loc)
	}

	post, err := a.Store.GetPostByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if post.Content != "v2" {
		t.Errorf("Content = %q, want v2", post.Content)
	}
}

func TestDeletePostRemovesItEverywhere(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	id := cl.createPost("Doomed", "doomed", "bye")

	rec := cl.postForm(fmt.Sprintf("/delete/%d", id), url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); !strings.HasPrefix(loc, "/dashboard") {
		t.Errorf("delete redirects to %q, want the dashboard", loc)
	}

	rec = cl.get("/post/doomed")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /post/doomed after delete status = %d, want 404", rec.Code)
	}
}

func TestPostNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)

	for _, path := range []string{"/post/no-such-slug", "/post/424242"} {
		rec := cl.get(path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHomePaginationClampsOutOfRange(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	for i := 1; i <= 5; i++ {
		cl.createPost(fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i), "body")
	}

	rec := cl.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("home status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `rel="next"`) {
		t.Error("page 1 should link to the next page")
	}
	if strings.Contains(body, `rel="prev"`) {
		t.Error("page 1 must not link to a previous page")
	}

	// Beyond-range page renders the last page instead of erroring.
	rec = cl.get("/?page=99")
	if rec.Code != http.StatusOK {
		t.Fatalf("clamped page status = %d, want 200", rec.Code)
	}
	body = rec.Body.String()
	if !strings.Contains(body, "Post 5") {
		t.Error("clamped page should show the last page's posts")
	}
	if strings.Contains(body, `rel="next"`) {
		t.Error("last page must not link to a next page")
	}
}

func TestContactFlow(t *testing.T) {
	a, notifier := newTestApp(t)
	cl := newClient(t, a)

	// Missing fields re-render the form.
	rec := cl.postForm("/contact", url.Values{"name": {"V"}})
	if !strings.Contains(rec.Body.String(), "All fields are required.") {
		t.Error("expected validation message for missing fields")
	}

	form := url.Values{
		"name":    {"Visitor"},
		"email":   {"visitor@example.com"},
		"phone":   {"555-0100"},
		"message": {"Nice blog!"},
	}
	rec = cl.postForm("/contact", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("contact status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "your message was sent") {
		t.Error("expected confirmation after successful submission")
	}

	sent := notifier.all()
	if len(sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(sent))
	}
	if sent[0].ReplyTo != "visitor@example.com" {
		t.Errorf("notification ReplyTo = %q, want the visitor's email", sent[0].ReplyTo)
	}
	if !strings.Contains(sent[0].Body, "Nice blog!") {
		t.Error("notification body missing the message")
	}

	// A second submission from the same email fails the uniqueness check.
	rec = cl.postForm("/contact", form)
	if !strings.Contains(rec.Body.String(), "already have a message") {
		t.Error("expected duplicate-inquiry message")
	}
	if len(notifier.all()) != 1 {
		t.Error("duplicate submission must not notify again")
	}
}

func (c *client) upload(filename, content string) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("_csrf", c.csrf()); err != nil {
		c.t.Fatalf("write csrf field: %v", err)
	}
	fw, err := mw.CreateFormFile("postFile", filename)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		c.t.Fatalf("write file content: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/uploader", strings.NewReader(buf.String()))
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return c.do(req)
}

func TestUploadHandlerAllowListAndFlash(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	rec := cl.upload("photo.PNG", "payload")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("upload status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get(echo.HeaderLocation)
	if !strings.Contains(loc, "uploaded") {
		t.Errorf("upload redirect %q missing success flash", loc)
	}
	if _, err := os.Stat(filepath.Join(a.Config.UploadDir, "photo.png")); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}

	rec = cl.upload("photo.EXE", "MZ payload")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("rejected upload status = %d, want 303", rec.Code)
	}
	loc = rec.Header().Get(echo.HeaderLocation)
	if !strings.Contains(loc, "rejected") {
		t.Errorf("rejected upload redirect %q missing rejection flash", loc)
	}
	if _, err := os.Stat(filepath.Join(a.Config.UploadDir, "photo.exe")); !os.IsNotExist(err) {
		t.Error("rejected file must not be stored")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()

	rec := cl.get("/logout")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d, want 303", rec.Code)
	}

	rec = cl.get("/edit/0")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit after logout status = %d, want 303 to login", rec.Code)
	}
}

func TestFeedAndSitemapListPosts(t *testing.T) {
	a, _ := newTestApp(t)
	cl := newClient(t, a)
	cl.mustLogin()
	cl.createPost("Syndicated", "syndicated", "body")

	rec := cl.get("/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("feed status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Syndicated") {
		t.Error("feed missing post")
	}

	rec = cl.get("/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("sitemap status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/post/syndicated") {
		t.Error("sitemap missing post URL")
	}
}
