package inkpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func trimmedFormValue(c echo.Context, name string) string {
	return strings.TrimSpace(c.FormValue(name))
}

// handleHome serves the paginated post listing. The page query parameter
// is clamped by Paginate, so out-of-range requests still render.
func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	page := Paginate(posts, a.Config.PostsPerPage, c.QueryParam("page"))
	return Render(c, a.Views.Home(page))
}

// handlePost serves a single post. A numeric path segment is treated as
// an identifier, anything else as a slug.
func (a *App) handlePost(c echo.Context) error {
	ref := c.Param("ref")
	ctx := c.Request().Context()

	var post Post
	var err error
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		post, err = a.Cache.GetPostByID(ctx, id)
	} else {
		post, err = a.Cache.GetPostBySlug(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return Render(c, a.Views.Post(post))
}

func (a *App) handleAbout(c echo.Context) error {
	return Render(c, a.Views.About())
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact(ContactForm{}, "", false, CsrfToken(c)))
}

// handleContactSubmit validates the submission, persists the inquiry,
// and then notifies the site owner. Each failure source gets its own
// outcome: missing fields and duplicate submissions re-render the form
// with a message, storage failures reach the error handler, and a
// failed notification is logged without affecting the visitor.
func (a *App) handleContactSubmit(c echo.Context) error {
	form := ContactForm{
		Name:    trimmedFormValue(c, "name"),
		Email:   trimmedFormValue(c, "email"),
		Phone:   trimmedFormValue(c, "phone"),
		Message: trimmedFormValue(c, "message"),
	}
	if form.Name == "" || form.Email == "" || form.Phone == "" || form.Message == "" {
		return Render(c, a.Views.Contact(form, "All fields are required.", false, CsrfToken(c)))
	}

	_, err := a.Store.CreateInquiry(c.Request().Context(), Inquiry{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Message: form.Message,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateInquiry) {
			return Render(c, a.Views.Contact(form, "We already have a message from that email or phone number.", false, CsrfToken(c)))
		}
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	n := Notification{
		Subject: "New message from " + a.Config.SiteName,
		ReplyTo: form.Email,
		Body:    fmt.Sprintf("%s\n%s\n%s", form.Message, form.Phone, form.Name),
	}
	if err := a.notifier.Notify(ctx, n); err != nil {
		c.Logger().Errorf("contact notification failed: %v", err)
	}

	return Render(c, a.Views.Contact(ContactForm{}, "", true, CsrfToken(c)))
}

// handleRobots generates robots.txt dynamically, keeping the admin
// surface out of crawlers.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /dashboard\nDisallow: /edit/\n\nSitemap: %s/sitemap.xml\n", a.Config.SiteURL)
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
