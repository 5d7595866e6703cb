package document

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// RenderHTML reconstitutes a parsed document tree into displayable HTML.
// All text and attribute values are escaped. Node types outside the closed
// set render nothing (Parse already rejects them; a hand-built tree with an
// unknown type degrades to empty output instead of panicking).
func RenderHTML(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	renderNode(&b, n)
	return b.String()
}

func renderNode(b *strings.Builder, n *Node) {
	switch n.Type {
	case TypeDoc:
		renderChildren(b, n)

	case TypeParagraph:
		b.WriteString("<p>")
		renderChildren(b, n)
		b.WriteString("</p>")

	case TypeHeading:
		level := n.Level
		if level < 1 || level > 3 {
			level = 1
		}
		fmt.Fprintf(b, "<h%d>", level)
		renderChildren(b, n)
		fmt.Fprintf(b, "</h%d>", level)

	case TypeBulletList:
		b.WriteString("<ul>")
		renderChildren(b, n)
		b.WriteString("</ul>")

	case TypeOrderedList:
		if n.Start > 1 {
			fmt.Fprintf(b, `<ol start="%d">`, n.Start)
		} else {
			b.WriteString("<ol>")
		}
		renderChildren(b, n)
		b.WriteString("</ol>")

	case TypeListItem:
		b.WriteString("<li>")
		renderChildren(b, n)
		b.WriteString("</li>")

	case TypeText:
		b.WriteString(renderText(n))

	case TypeHardBreak:
		b.WriteString("<br>")

	case TypeImage:
		if !safeURL(n.Src) {
			// A hand-stored script-scheme source renders nothing.
			break
		}
		b.WriteString(`<img src="` + html.EscapeString(n.Src) + `"`)
		if n.Alt != "" {
			b.WriteString(` alt="` + html.EscapeString(n.Alt) + `"`)
		}
		if n.Title != "" {
			b.WriteString(` title="` + html.EscapeString(n.Title) + `"`)
		}
		b.WriteString(">")

	case TypeYouTube:
		if embed, ok := youtubeEmbedURL(n.Src); ok {
			b.WriteString(`<iframe src="` + html.EscapeString(embed) +
				`" allowfullscreen loading="lazy"></iframe>`)
		}
		// An unresolvable video reference renders nothing rather than a
		// broken frame.

	case TypeBlockquote:
		b.WriteString("<blockquote>")
		renderChildren(b, n)
		b.WriteString("</blockquote>")

	case TypeCodeBlock:
		b.WriteString("<pre><code>")
		renderChildren(b, n)
		b.WriteString("</code></pre>")

	case TypeHorizontalRule:
		b.WriteString("<hr>")

	default:
		// Unknown tag: render nothing.
	}
}

func renderChildren(b *strings.Builder, n *Node) {
	for _, child := range n.Content {
		renderNode(b, child)
	}
}

// renderText wraps the escaped text in its marks, first mark outermost.
func renderText(n *Node) string {
	out := html.EscapeString(n.Text)
	for i := len(n.Marks) - 1; i >= 0; i-- {
		switch m := n.Marks[i]; m.Type {
		case MarkBold:
			out = "<strong>" + out + "</strong>"
		case MarkItalic:
			out = "<em>" + out + "</em>"
		case MarkLink:
			if !safeURL(m.Href) {
				// The text still renders, just not as a link.
				continue
			}
			out = `<a href="` + html.EscapeString(m.Href) +
				`" target="_blank" rel="noopener noreferrer">` + out + "</a>"
		}
	}
	return out
}

// safeURL reports whether a stored URL may be emitted as a live href or
// image source. Relative and http(s) URLs pass; any other scheme
// (javascript:, data:, and friends) does not.
func safeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return true
	}
	return false
}

// youtubeEmbedURL converts the URL shapes users paste (watch pages, youtu.be
// short links, existing embed links) into an embeddable address.
func youtubeEmbedURL(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			if id := u.Query().Get("v"); id != "" {
				return "https://www.youtube.com/embed/" + id, true
			}
			return "", false
		}
		if id, ok := strings.CutPrefix(u.Path, "/embed/"); ok && id != "" {
			return "https://www.youtube.com/embed/" + id, true
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube.com/embed/" + id, true
		}
	}
	return "", false
}
