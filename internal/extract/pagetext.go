package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// pageText flattens HTML into readable text for the field-extraction prompt,
// preferring <main> or <article> over <body>. Headings, paragraphs and list
// items keep their line structure since ingredient lists and step lists are
// what the model needs to see. Script, style, nav and footer subtrees are
// skipped.
func pageText(input []byte) (title string, text string) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return "", ""
	}
	title = strings.TrimSpace(nodeTitle(node))

	root := firstElement(node, "main")
	if root == nil {
		root = firstElement(node, "article")
	}
	if root == nil {
		root = firstElement(node, "body")
	}
	if root == nil {
		return title, ""
	}
	var b strings.Builder
	flatten(&b, root)
	return title, tidyLines(b.String())
}

func nodeTitle(n *html.Node) string {
	head := firstElement(n, "head")
	if head == nil {
		return ""
	}
	t := firstElement(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func flatten(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "form":
			return
		case "br", "hr", "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "tr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(n.Data, "\t", " "), "\r", " "))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flatten(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li":
			b.WriteString("\n")
		}
	}
}

// tidyLines collapses whitespace runs and drops repeated blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return strings.Join(out, "\n")
}
