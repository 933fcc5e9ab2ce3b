package inkpress

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	base := a.Config.SiteURL
	items := make([]rssItem, 0, len(posts))
	// Newest first in the feed; the store returns insertion order.
	for i := len(posts) - 1; i >= 0; i-- {
		p := posts[i]
		postURL := BuildURL(base, "post", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.SubHeading,
			PubDate:     p.PostedAt.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.SiteName,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}
