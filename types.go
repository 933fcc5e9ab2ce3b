package inkpress

import (
	"time"

	"github.com/a-h/templ"
)

// Post is the core content type stored in SQLite and rendered by templates.
// ID is assigned by the store and never changes; Slug is the public lookup
// key and unique across posts. PostedAt is refreshed on every save.
type Post struct {
	ID         int64
	Title      string
	SubHeading string
	Content    string
	Author     string
	Slug       string
	BgImage    string
	PostedAt   time.Time
}

// Link returns the public URL path for the post.
func (p Post) Link() string {
	return "/post/" + p.Slug
}

// Inquiry is a visitor-submitted contact message. Inquiries are append-only:
// the system never mutates or deletes them, and email/phone are unique per
// record so repeat submissions fail at the store.
type Inquiry struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	Message     string
	SubmittedAt time.Time
}

// ContactForm carries submitted contact fields back into the form view
// so a rejected submission does not lose the visitor's input.
type ContactForm struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Page is one slice of the post collection plus navigation links.
// Prev and Next are ready-to-use URL paths, empty when absent.
type Page struct {
	Posts  []Post
	Number int
	Last   int
	Prev   string
	Next   string
}

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates; DefaultViews provides a
// minimal working set.
type ViewFuncs struct {
	Home        func(page Page) templ.Component
	Post        func(post Post) templ.Component
	About       func() templ.Component
	Contact     func(form ContactForm, msg string, sent bool, csrfToken string) templ.Component
	Login       func(showError bool, csrfToken string) templ.Component
	Dashboard   func(posts []Post, inquiries []Inquiry, msg string, csrfToken string) templ.Component
	EditForm    func(post Post, msg string, csrfToken string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}
