package inkpress

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for an inkpress site. It is parsed once
// at process start and passed explicitly to every component that needs
// it; nothing reads the environment after startup.
type Config struct {
	SiteName    string `env:"SITE_NAME" envDefault:"Blog"`
	SiteURL     string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	Description string `env:"SITE_DESCRIPTION"`

	Addr         string `env:"ADDR" envDefault:":3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/blog.db"`
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"static/uploads"`
	PostsPerPage int    `env:"POSTS_PER_PAGE" envDefault:"5"`

	// Exactly one administrator account exists, supplied out-of-band.
	// AdminPasswordHash is a bcrypt hash; generate one with
	// `inkpress hashpw`.
	AdminUser         string `env:"ADMIN_USER"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	SessionSecret string `env:"SESSION_SECRET"`
	CookieSecure  bool   `env:"COOKIE_SECURE"`

	// Contact notifications. OwnerEmail receives them; ResendAPIKey
	// empty disables sending (inquiries are still persisted).
	OwnerEmail   string `env:"OWNER_EMAIL"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM_EMAIL"`

	PostCacheTTL time.Duration `env:"POST_CACHE_TTL" envDefault:"5m"`
}

// ParseConfig loads Config from environment variables.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("inkpress: parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AdminUser == "" {
		return fmt.Errorf("inkpress: AdminUser is required")
	}
	if c.AdminPasswordHash == "" {
		return fmt.Errorf("inkpress: AdminPasswordHash is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("inkpress: SessionSecret is required")
	}
	if c.PostsPerPage < 1 {
		return fmt.Errorf("inkpress: PostsPerPage must be positive, got %d", c.PostsPerPage)
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithNotifier replaces the contact notifier. Useful for tests and for
// sites that deliver owner notifications through something other than
// Resend.
func WithNotifier(n Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithCustomRoutes registers additional routes on the Echo instance
// before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
