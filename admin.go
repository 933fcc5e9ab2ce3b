package inkpress

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

// handleDashboard renders the login view for anonymous requests and the
// post/inquiry listing for an authenticated admin.
func (a *App) handleDashboard(c echo.Context) error {
	if !a.isAdmin(c) {
		return Render(c, a.Views.Login(false, CsrfToken(c)))
	}
	return a.renderDashboard(c, c.QueryParam("msg"))
}

// handleLogin processes the credential form posted to /dashboard.
// A failed attempt re-renders the login view and establishes no session.
func (a *App) handleLogin(c echo.Context) error {
	if a.isAdmin(c) {
		return a.renderDashboard(c, "")
	}
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	username := trimmedFormValue(c, "user_email")
	password := c.FormValue("user_pass")
	if !a.checkCredentials(username, password) {
		return Render(c, a.Views.Login(true, CsrfToken(c)))
	}
	if err := setAdminSession(c, username); err != nil {
		return err
	}
	return a.renderDashboard(c, "")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// handleEdit renders the edit form: id 0 means creating, anything else
// loads the existing post.
func (a *App) handleEdit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	post := Post{}
	if id != 0 {
		post, err = a.Store.GetPostByID(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
			}
			return err
		}
	}
	return Render(c, a.Views.EditForm(post, c.QueryParam("msg"), CsrfToken(c)))
}

// handleEditSubmit saves the posted fields. Creating redirects to the
// edit view of the newly assigned identifier rather than back to the
// list, so the admin lands on the saved post and can keep editing.
// Updating redirects back to the same edit view for the same reason.
func (a *App) handleEditSubmit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}

	post := Post{
		Title:      trimmedFormValue(c, "title"),
		SubHeading: trimmedFormValue(c, "subHeading"),
		Content:    c.FormValue("content"),
		Slug:       trimmedFormValue(c, "slug"),
		BgImage:    trimmedFormValue(c, "bg_image"),
		Author:     currentUser(c),
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Slug == "" {
		post.ID = id
		return Render(c, a.Views.EditForm(post, "A title or slug is required.", CsrfToken(c)))
	}

	ctx := c.Request().Context()
	if id == 0 {
		created, err := a.Store.CreatePost(ctx, post)
		if err != nil {
			if errors.Is(err, ErrSlugTaken) {
				return Render(c, a.Views.EditForm(post, "That slug is already in use.", CsrfToken(c)))
			}
			return err
		}
		a.Cache.Invalidate()
		return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/edit/%d", created.ID))
	}

	if _, err := a.Store.UpdatePost(ctx, id, post); err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		if errors.Is(err, ErrSlugTaken) {
			post.ID = id
			return Render(c, a.Views.EditForm(post, "That slug is already in use.", CsrfToken(c)))
		}
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/edit/%d", id))
}

// handleDelete removes a post and returns to the dashboard.
func (a *App) handleDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err := a.Store.DeletePost(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, dashboardMsg("Post not found."))
		}
		return err
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, dashboardMsg("Post deleted."))
}

// handleUpload stores an attached file and returns to the dashboard with
// a flash message. Policy rejections and storage failures both land on
// the dashboard; only the message differs.
func (a *App) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("postFile")
	if err != nil {
		return c.Redirect(http.StatusSeeOther, dashboardMsg("No file selected."))
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	stored, err := a.Uploader.Save(fh.Filename, src)
	if err != nil {
		var rejected *UploadRejectedError
		if errors.As(err, &rejected) {
			return c.Redirect(http.StatusSeeOther, dashboardMsg("Upload rejected: "+rejected.Reason))
		}
		c.Logger().Errorf("upload failed: %v", err)
		return c.Redirect(http.StatusSeeOther, dashboardMsg("Upload failed, try again."))
	}
	return c.Redirect(http.StatusSeeOther, dashboardMsg(fmt.Sprintf("File %q uploaded.", stored)))
}

func (a *App) renderDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	posts, err := a.Store.ListPosts(ctx)
	if err != nil {
		return err
	}
	inquiries, err := a.Store.ListInquiries(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Dashboard(posts, inquiries, msg, CsrfToken(c)))
}

func dashboardMsg(msg string) string {
	return "/dashboard?msg=" + url.QueryEscape(msg)
}
