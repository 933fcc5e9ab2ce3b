// Package inkpress is a small personal-blog content manager built with
// Go, Echo, and templ. Visitors browse paginated posts and static
// about/contact pages; a single administrator logs in to create, edit,
// and delete posts and upload attached files.
//
// Users provide their own templ templates via the ViewFuncs struct
// (DefaultViews ships a working fallback set), and inkpress handles the
// handler logic, middleware, and database operations.
package inkpress

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App is the central inkpress application. It wires together the store,
// cache, handlers, middleware, and user-provided templates.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Uploader *Uploader
	Views    ViewFuncs

	notifier     Notifier
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
}

// New creates a new inkpress App with the given configuration and view
// functions.
func New(cfg Config, views ViewFuncs, opts ...Option) *App {
	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// setup validates config and initializes every component short of
// binding the listener. Split out of Start so tests can drive the wired
// Echo instance directly.
func (a *App) setup() error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("inkpress: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(store, a.Config.PostCacheTTL)
	a.Uploader = NewUploader(a.Config.UploadDir)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if a.notifier == nil {
		if a.Config.ResendAPIKey != "" && a.Config.OwnerEmail != "" {
			a.notifier = NewResendNotifier(a.Config.ResendAPIKey, a.Config.ResendFrom, a.Config.OwnerEmail)
		} else {
			a.notifier = NopNotifier{}
		}
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the application and runs the server until it stops.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/uploads", a.Config.UploadDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public routes
	e.GET("/", a.handleHome)
	e.GET("/post/:ref", a.handlePost)
	e.GET("/about", a.handleAbout)
	e.GET("/contact", a.handleContact)
	e.POST("/contact", a.handleContactSubmit)
	e.GET("/contact_us", a.handleContact)
	e.POST("/contact_us", a.handleContactSubmit)

	// Admin routes — one session gate for every mutating route.
	e.GET("/dashboard", a.handleDashboard)
	e.POST("/dashboard", a.handleLogin)
	e.GET("/logout", a.handleLogout)
	e.GET("/edit/:id", a.handleEdit, a.requireAdmin)
	e.POST("/edit/:id", a.handleEditSubmit, a.requireAdmin)
	e.GET("/delete/:id", a.handleDelete, a.requireAdmin)
	e.POST("/delete/:id", a.handleDelete, a.requireAdmin)
	e.GET("/uploader", a.handleUploaderRedirect, a.requireAdmin)
	e.POST("/uploader", a.handleUpload, a.requireAdmin)
}

// handleUploaderRedirect sends GET /uploader back to the dashboard,
// where the upload form lives.
func (a *App) handleUploaderRedirect(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
