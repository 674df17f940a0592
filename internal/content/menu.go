package content

import (
	"strings"

	"golang.org/x/net/html"
)

// MenuItem is one navigation link.
type MenuItem struct {
	Label string
	Href  string
}

// Menu renders the navigation fragment injected at the top of every page.
type Menu struct {
	HomeLabel string
	HomeHref  string
	Items     []MenuItem
}

// Render returns the menu markup.
func (m Menu) Render() string {
	var sb strings.Builder
	sb.WriteString(`<nav class="menu">`)
	if m.HomeLabel != "" {
		href := m.HomeHref
		if href == "" {
			href = "/"
		}
		sb.WriteString(`<a class="home" href="` + html.EscapeString(href) + `">` + html.EscapeString(m.HomeLabel) + `</a>`)
	}
	if len(m.Items) > 0 {
		sb.WriteString("<ul>")
		for _, item := range m.Items {
			sb.WriteString(`<li><a href="` + html.EscapeString(item.Href) + `">` + html.EscapeString(item.Label) + `</a></li>`)
		}
		sb.WriteString("</ul>")
	}
	sb.WriteString("</nav>")
	return sb.String()
}
