package inkpress

import (
	"bytes"
	"context"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

// Markdown returns a templ.Component that renders post content as HTML.
// The dialect is deliberately small: headings, paragraphs, unordered
// lists, fenced code blocks, bold/italic/inline code, and links.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		renderMarkdown(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func renderMarkdown(buf *bytes.Buffer, md string) {
	inList := false
	inCode := false
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				buf.WriteString("</code></pre>\n")
			} else {
				closeList(buf, &inList)
				buf.WriteString("<pre><code>")
			}
			inCode = !inCode
			continue
		}
		if inCode {
			buf.WriteString(html.EscapeString(line))
			buf.WriteByte('\n')
			continue
		}

		switch {
		case trimmed == "":
			closeList(buf, &inList)
		case strings.HasPrefix(trimmed, "### "):
			closeList(buf, &inList)
			writeTag(buf, "h3", trimmed[4:])
		case strings.HasPrefix(trimmed, "## "):
			closeList(buf, &inList)
			writeTag(buf, "h2", trimmed[3:])
		case strings.HasPrefix(trimmed, "# "):
			closeList(buf, &inList)
			writeTag(buf, "h1", trimmed[2:])
		case strings.HasPrefix(trimmed, "- "):
			if !inList {
				buf.WriteString("<ul>\n")
				inList = true
			}
			writeTag(buf, "li", trimmed[2:])
		default:
			closeList(buf, &inList)
			writeTag(buf, "p", trimmed)
		}
	}
	closeList(buf, &inList)
	if inCode {
		buf.WriteString("</code></pre>\n")
	}
}

func closeList(buf *bytes.Buffer, inList *bool) {
	if *inList {
		buf.WriteString("</ul>\n")
		*inList = false
	}
}

func writeTag(buf *bytes.Buffer, tag, text string) {
	buf.WriteString("<" + tag + ">")
	buf.WriteString(renderInline(text))
	buf.WriteString("</" + tag + ">\n")
}

// renderInline escapes the text first, then applies inline markup, so
// post content cannot inject raw HTML.
func renderInline(s string) string {
	s = html.EscapeString(s)
	s = reInlineCode.ReplaceAllString(s, "<code>$1</code>")
	s = reBold.ReplaceAllString(s, "<strong>$1</strong>")
	s = reItalic.ReplaceAllString(s, "<em>$1</em>")
	s = reLink.ReplaceAllString(s, `<a href="$2">$1</a>`)
	return s
}
