package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Query is the set of primitives the page parsers need from a parsed document.
//
// note: fault injection point
type Query interface {
	// FindFirst returns the first descendant of scope matching selector, or nil.
	FindFirst(scope *html.Node, selector string) *html.Node
	// FindAll returns every descendant of scope matching selector in document order.
	FindAll(scope *html.Node, selector string) []*html.Node
	// TextOf returns the trimmed text of the first child of node if that child is a text node,
	// otherwise "".
	TextOf(node *html.Node) string
	// Attr returns the value of the attribute `key` of node, or "".
	Attr(node *html.Node, key string) string
}

// GoqueryQuery implements Query with goquery (cascadia selectors).
type GoqueryQuery struct{}

func (GoqueryQuery) FindFirst(scope *html.Node, selector string) *html.Node {
	if scope == nil {
		return nil
	}
	sel := goquery.NewDocumentFromNode(scope).Find(selector)
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0]
}

func (GoqueryQuery) FindAll(scope *html.Node, selector string) []*html.Node {
	if scope == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(scope).Find(selector).Nodes
}

func (GoqueryQuery) TextOf(node *html.Node) string {
	return FirstText(node)
}

func (GoqueryQuery) Attr(node *html.Node, key string) string {
	return Attr(node, key)
}

// ParseBytes parses an html document held in memory.
func ParseBytes(body []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(body))
}

// FirstText returns the trimmed data of the first child of node when it is a text node.
func FirstText(node *html.Node) string {
	if node == nil || node.FirstChild == nil {
		return ""
	}
	if node.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(node.FirstChild.Data)
}

// Attr returns the value of the attribute `key` of node, or "".
func Attr(node *html.Node, key string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
