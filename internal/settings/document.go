// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package settings

import (
	"fmt"
	"html"
	"strings"

	"github.com/goccy/go-json"
)

// Node is one node of the rich-text editor document: a tree of typed
// blocks whose leaves are text nodes with optional marks.
type Node struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Marks   []Mark                 `json:"marks,omitempty"`
	Content []Node                 `json:"content,omitempty"`
}

// Mark is inline formatting on a text node.
type Mark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// ParseDocument decodes an editor document. The root must be a "doc" node.
func ParseDocument(raw []byte) (Node, error) {
	var doc Node
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Node{}, fmt.Errorf("decode document: %w", err)
	}
	if doc.Type != "doc" {
		return Node{}, fmt.Errorf("document root type %q, want \"doc\"", doc.Type)
	}
	return doc, nil
}

// DocumentFromText builds a document with one paragraph per line.
func DocumentFromText(text string) Node {
	doc := Node{Type: "doc"}
	for _, line := range strings.Split(text, "\n") {
		p := Node{Type: "paragraph"}
		if line != "" {
			p.Content = []Node{{Type: "text", Text: line}}
		}
		doc.Content = append(doc.Content, p)
	}
	return doc
}

// Blank reports whether the document holds nothing but empty paragraphs.
func (n Node) Blank() bool {
	switch n.Type {
	case "text":
		return strings.TrimSpace(n.Text) == ""
	case "doc", "paragraph":
		for _, c := range n.Content {
			if !c.Blank() {
				return false
			}
		}
		return true
	}
	return false
}

// JSON encodes the document compactly.
func (n Node) JSON() (string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

// PlainText joins the text of every block, one block per line.
func (n Node) PlainText() string {
	var lines []string
	var walk func(Node)
	walk = func(node Node) {
		if isBlockContainer(node.Type) {
			for _, c := range node.Content {
				walk(c)
			}
			return
		}
		lines = append(lines, inlineText(node))
	}
	walk(n)
	return strings.Join(lines, "\n")
}

func inlineText(n Node) string {
	switch n.Type {
	case "text":
		return n.Text
	case "hardBreak":
		return "\n"
	}
	var b strings.Builder
	for _, c := range n.Content {
		b.WriteString(inlineText(c))
	}
	return b.String()
}

// isBlockContainer reports nodes whose children are blocks, not inline text.
func isBlockContainer(t string) bool {
	switch t {
	case "doc", "bulletList", "orderedList", "listItem", "blockquote":
		return true
	}
	return false
}

// HTML renders the document as sanitized markup. Unknown node types render
// their children only.
func (n Node) HTML() string {
	var b strings.Builder
	renderHTML(&b, n)
	return b.String()
}

var blockTags = map[string]string{
	"paragraph":      "p",
	"blockquote":     "blockquote",
	"bulletList":     "ul",
	"orderedList":    "ol",
	"listItem":       "li",
	"codeBlock":      "pre",
	"horizontalRule": "hr",
}

var markTags = map[string]string{
	"bold":      "strong",
	"italic":    "em",
	"underline": "u",
	"strike":    "s",
	"code":      "code",
}

func renderHTML(b *strings.Builder, n Node) {
	switch n.Type {
	case "text":
		renderText(b, n)
		return
	case "hardBreak":
		b.WriteString("<br>")
		return
	case "heading":
		level := headingLevel(n.Attrs)
		fmt.Fprintf(b, "<h%d>", level)
		renderChildren(b, n)
		fmt.Fprintf(b, "</h%d>", level)
		return
	case "horizontalRule":
		b.WriteString("<hr>")
		return
	}

	tag, ok := blockTags[n.Type]
	if !ok {
		renderChildren(b, n)
		return
	}
	b.WriteString("<" + tag + ">")
	renderChildren(b, n)
	b.WriteString("</" + tag + ">")
}

func renderChildren(b *strings.Builder, n Node) {
	for _, c := range n.Content {
		renderHTML(b, c)
	}
}

func renderText(b *strings.Builder, n Node) {
	var closers []string
	for _, m := range n.Marks {
		if m.Type == "link" {
			href, _ := m.Attrs["href"].(string)
			if !safeHref(href) {
				continue
			}
			b.WriteString(`<a href="` + html.EscapeString(href) + `" rel="noopener noreferrer nofollow">`)
			closers = append(closers, "</a>")
			continue
		}
		tag, ok := markTags[m.Type]
		if !ok {
			continue
		}
		b.WriteString("<" + tag + ">")
		closers = append(closers, "</"+tag+">")
	}
	b.WriteString(html.EscapeString(n.Text))
	for i := len(closers) - 1; i >= 0; i-- {
		b.WriteString(closers[i])
	}
}

func safeHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "mailto:")
}

func headingLevel(attrs map[string]interface{}) int {
	// JSON numbers decode as float64.
	if v, ok := attrs["level"].(float64); ok && v >= 1 && v <= 6 {
		return int(v)
	}
	return 2
}
