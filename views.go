package inkpress

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// DefaultViews returns a minimal, unstyled component set so a site runs
// before the user supplies their own templates. Sites are expected to
// replace these through ViewFuncs.
func DefaultViews(cfg Config) ViewFuncs {
	return ViewFuncs{
		Home:        func(page Page) templ.Component { return homeView(cfg, page) },
		Post:        func(post Post) templ.Component { return postView(cfg, post) },
		About:       func() templ.Component { return aboutView(cfg) },
		Contact:     contactView,
		Login:       loginView,
		Dashboard:   dashboardView,
		EditForm:    editFormView,
		NotFound:    func() templ.Component { return messageView("404", "Page not found.") },
		ServerError: func() templ.Component { return messageView("500", "Something went wrong.") },
	}
}

func component(fn func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fn(w)
	})
}

func esc(s string) string {
	return html.EscapeString(s)
}

func writeHead(w io.Writer, title string) {
	fmt.Fprintf(w, "<!doctype html>\n<html lang=\"en\">\n<head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>%s</title></head>\n<body>\n", esc(title))
}

func writeFoot(w io.Writer) {
	fmt.Fprint(w, "</body>\n</html>\n")
}

func writeNav(w io.Writer) {
	fmt.Fprint(w, `<nav><a href="/">Home</a> <a href="/about">About</a> <a href="/contact">Contact</a></nav>`+"\n")
}

func homeView(cfg Config, page Page) templ.Component {
	return component(func(w io.Writer) error {
		writeHead(w, cfg.SiteName)
		writeNav(w)
		fmt.Fprintf(w, "<h1>%s</h1>\n", esc(cfg.SiteName))
		for _, p := range page.Posts {
			fmt.Fprintf(w, `<article><h2><a href="%s">%s</a></h2><p>%s</p><small>%s, %s</small></article>`+"\n",
				esc(p.Link()), esc(p.Title), esc(p.SubHeading), esc(p.Author), p.PostedAt.Format("Jan 2, 2006"))
		}
		fmt.Fprint(w, "<nav>")
		if page.Prev != "" {
			fmt.Fprintf(w, `<a rel="prev" href="%s">Previous</a> `, esc(page.Prev))
		}
		if page.Next != "" {
			fmt.Fprintf(w, `<a rel="next" href="%s">Next</a>`, esc(page.Next))
		}
		fmt.Fprint(w, "</nav>\n")
		writeFoot(w)
		return nil
	})
}

func postView(cfg Config, post Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writeHead(w, post.Title+" | "+cfg.SiteName)
		writeNav(w)
		if post.BgImage != "" {
			fmt.Fprintf(w, `<img src="/uploads/%s" alt="">`+"\n", esc(post.BgImage))
		}
		fmt.Fprintf(w, "<h1>%s</h1>\n<p>%s</p>\n<small>%s, %s</small>\n<div>\n",
			esc(post.Title), esc(post.SubHeading), esc(post.Author), post.PostedAt.Format("Jan 2, 2006"))
		if err := Markdown(post.Content).Render(ctx, w); err != nil {
			return err
		}
		fmt.Fprint(w, "</div>\n")
		writeFoot(w)
		return nil
	})
}

func aboutView(cfg Config) templ.Component {
	return component(func(w io.Writer) error {
		writeHead(w, "About | "+cfg.SiteName)
		writeNav(w)
		fmt.Fprintf(w, "<h1>About</h1>\n<p>%s</p>\n", esc(cfg.Description))
		writeFoot(w)
		return nil
	})
}

func contactView(form ContactForm, msg string, sent bool, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		writeHead(w, "Contact")
		writeNav(w)
		fmt.Fprint(w, "<h1>Contact</h1>\n")
		if sent {
			fmt.Fprint(w, "<p>Thanks, your message was sent.</p>\n")
		}
		if msg != "" {
			fmt.Fprintf(w, "<p>%s</p>\n", esc(msg))
		}
		fmt.Fprintf(w, `<form method="post" action="/contact">
<input type="hidden" name="_csrf" value="%s">
<input name="name" placeholder="Name" value="%s">
<input name="email" placeholder="Email" value="%s">
<input name="phone" placeholder="Phone" value="%s">
<textarea name="message" placeholder="Message">%s</textarea>
<button type="submit">Send</button>
</form>
`, esc(csrfToken), esc(form.Name), esc(form.Email), esc(form.Phone), esc(form.Message))
		writeFoot(w)
		return nil
	})
}

func loginView(showError bool, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		writeHead(w, "Login")
		fmt.Fprint(w, "<h1>Login</h1>\n")
		if showError {
			fmt.Fprint(w, "<p>Wrong username or password.</p>\n")
		}
		fmt.Fprintf(w, `<form method="post" action="/dashboard">
<input type="hidden" name="_csrf" value="%s">
<input name="user_email" placeholder="Username">
<input type="password" name="user_pass" placeholder="Password">
<button type="submit">Log in</button>
</form>
`, esc(csrfToken))
		writeFoot(w)
		return nil
	})
}

func dashboardView(posts []Post, inquiries []Inquiry, msg string, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		writeHead(w, "Dashboard")
		fmt.Fprint(w, `<h1>Dashboard</h1>
<p><a href="/edit/0">New post</a> <a href="/logout">Log out</a></p>
`)
		if msg != "" {
			fmt.Fprintf(w, "<p>%s</p>\n", esc(msg))
		}
		fmt.Fprint(w, "<ul>\n")
		for _, p := range posts {
			fmt.Fprintf(w, `<li>%s <a href="/edit/%d">edit</a> <form method="post" action="/delete/%d" style="display:inline"><input type="hidden" name="_csrf" value="%s"><button type="submit">delete</button></form></li>`+"\n",
				esc(p.Title), p.ID, p.ID, esc(csrfToken))
		}
		fmt.Fprint(w, "</ul>\n")
		fmt.Fprintf(w, `<form method="post" action="/uploader" enctype="multipart/form-data">
<input type="hidden" name="_csrf" value="%s">
<input type="file" name="postFile">
<button type="submit">Upload</button>
</form>
`, esc(csrfToken))
		fmt.Fprint(w, "<h2>Inquiries</h2>\n<ul>\n")
		for _, q := range inquiries {
			fmt.Fprintf(w, "<li>%s &lt;%s&gt; %s: %s</li>\n", esc(q.Name), esc(q.Email), esc(q.Phone), esc(q.Message))
		}
		fmt.Fprint(w, "</ul>\n")
		writeFoot(w)
		return nil
	})
}

func editFormView(post Post, msg string, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		title := "New post"
		if post.ID != 0 {
			title = "Edit: " + post.Title
		}
		writeHead(w, title)
		fmt.Fprintf(w, "<h1>%s</h1>\n", esc(title))
		if msg != "" {
			fmt.Fprintf(w, "<p>%s</p>\n", esc(msg))
		}
		fmt.Fprintf(w, `<form method="post" action="/edit/%d">
<input type="hidden" name="_csrf" value="%s">
<input name="title" placeholder="Title" value="%s">
<input name="subHeading" placeholder="Sub-heading" value="%s">
<input name="slug" placeholder="Slug" value="%s">
<input name="bg_image" placeholder="Background image" value="%s">
<textarea name="content">%s</textarea>
<button type="submit">Save</button>
</form>
<p><a href="/dashboard">Back to dashboard</a></p>
`, post.ID, esc(csrfToken), esc(post.Title), esc(post.SubHeading), esc(post.Slug), esc(post.BgImage), esc(post.Content))
		writeFoot(w)
		return nil
	})
}

func messageView(title, body string) templ.Component {
	return component(func(w io.Writer) error {
		writeHead(w, title)
		fmt.Fprintf(w, "<h1>%s</h1>\n<p>%s</p>\n", esc(title), esc(body))
		writeFoot(w)
		return nil
	})
}
