package extract

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// innerText returns the collapsed text content of a node, or "" for nil.
func innerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}

// textOf evaluates an XPath expression and returns the first match's
// collapsed text.
func textOf(doc *html.Node, expr string) string {
	return innerText(htmlquery.FindOne(doc, expr))
}

// attrOf evaluates an XPath expression and returns the named attribute of
// the first match.
func attrOf(doc *html.Node, expr, attr string) string {
	n := htmlquery.FindOne(doc, expr)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(n, attr))
}

// pageTitle prefers the first h1, then the document title.
func pageTitle(doc *html.Node) string {
	if t := textOf(doc, "//h1"); t != "" {
		return t
	}
	return textOf(doc, "//title")
}

// firstEmail scans mailto links first, then the visible text, for an
// address.
func firstEmail(doc *html.Node) string {
	for _, a := range htmlquery.Find(doc, "//a[@href]") {
		href := htmlquery.SelectAttr(a, "href")
		if strings.HasPrefix(href, "mailto:") {
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			if addr = strings.TrimSpace(addr); addr != "" {
				return addr
			}
		}
	}
	for _, field := range strings.Fields(htmlquery.InnerText(doc)) {
		if strings.Count(field, "@") == 1 && strings.Contains(field, ".") {
			return strings.Trim(field, ".,;:()<>")
		}
	}
	return ""
}

// labeledValue finds "Label: value" style rows in definition lists and
// tables. Matching is case-insensitive on the label prefix.
func labeledValue(doc *html.Node, labels ...string) string {
	rows := htmlquery.Find(doc, "//tr | //dt | //li | //p")
	for _, row := range rows {
		text := innerText(row)
		lower := strings.ToLower(text)
		for _, label := range labels {
			prefix := strings.ToLower(label)
			if !strings.HasPrefix(lower, prefix) {
				continue
			}
			rest := text[len(label):]
			// The label must end at a boundary so that "Tel" cannot split
			// a "Telefon:" row mid-word.
			if rest != "" && rest[0] != ':' && rest[0] != ' ' {
				continue
			}
			rest = strings.TrimSpace(strings.TrimLeft(rest, ":  "))
			if rest != "" {
				return rest
			}
			// dt/dd pairs keep the value in the sibling element.
			if row.Data == "dt" {
				if dd := nextElementSibling(row, "dd"); dd != nil {
					if v := innerText(dd); v != "" {
						return v
					}
				}
			}
		}
	}
	return ""
}

func nextElementSibling(n *html.Node, tag string) *html.Node {
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode {
			if sib.Data == tag {
				return sib
			}
			return nil
		}
	}
	return nil
}

// containsFold reports whether s contains substr, ASCII case-insensitive.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
