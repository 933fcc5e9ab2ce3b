package inkpress

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName = "admin_session"
	sessionKey  = "user"
)

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// checkCredentials verifies a submitted username/password pair against
// the single configured admin identity. The username must match exactly
// and the password must verify against the stored bcrypt hash.
func (a *App) checkCredentials(username, password string) bool {
	if username != a.Config.AdminUser {
		// Burn a comparison anyway so a wrong username costs the same
		// as a wrong password.
		_ = bcrypt.CompareHashAndPassword([]byte(a.Config.AdminPasswordHash), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.Config.AdminPasswordHash), []byte(password)) == nil
}

// isAdmin reports whether the request carries a session whose bound
// username equals the configured admin username. Any other session
// value does not count.
func (a *App) isAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	user, ok := sess.Values[sessionKey].(string)
	return ok && user != "" && user == a.Config.AdminUser
}

// currentUser returns the username bound to the session, or "".
func currentUser(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	user, _ := sess.Values[sessionKey].(string)
	return user
}

func setAdminSession(c echo.Context, username string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionKey] = username
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// requireAdmin is the single authorization check applied to every
// mutating admin route. Unauthorized requests always get the same
// outcome: a redirect to the dashboard, which renders the login view.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.isAdmin(c) {
			return c.Redirect(http.StatusSeeOther, "/dashboard")
		}
		return next(c)
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// HashPassword generates a bcrypt hash for the admin password. Used by
// the hashpw subcommand.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
