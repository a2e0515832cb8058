package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ResolveImage pulls a representative image URL from social-preview meta
// tags, preferring og:image over twitter:image. Returns "" when neither is
// present.
func ResolveImage(body []byte) string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil || root == nil {
		return ""
	}
	head := firstElement(root, "head")
	if head == nil {
		return ""
	}
	var ogImage, twImage string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "meta") {
			var key, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "property", "name":
					key = strings.ToLower(strings.TrimSpace(a.Val))
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			switch key {
			case "og:image", "og:image:url":
				if ogImage == "" {
					ogImage = content
				}
			case "twitter:image", "twitter:image:src":
				if twImage == "" {
					twImage = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(head)
	if ogImage != "" {
		return ogImage
	}
	return twImage
}
