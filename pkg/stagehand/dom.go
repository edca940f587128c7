package stagehand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxElementText caps the text shown for a single element.
const maxElementText = 160

// skipSelector matches subtrees that never contribute to a snapshot.
const skipSelector = "script, style, noscript, template, svg, iframe, object, embed, head, " +
	"[hidden], [aria-hidden='true'], input[type='hidden']"

var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"summary":  true,
	"option":   true,
	"label":    true,
}

var interactiveRoles = map[string]bool{
	"button":           true,
	"link":             true,
	"checkbox":         true,
	"radio":            true,
	"tab":              true,
	"menuitem":         true,
	"option":           true,
	"switch":           true,
	"textbox":          true,
	"combobox":         true,
	"searchbox":        true,
	"menuitemcheckbox": true,
}

// textTags are non-interactive elements whose own text is worth showing.
var textTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "li": true, "td": true, "th": true, "dt": true, "dd": true,
	"span": true, "div": true, "strong": true, "em": true, "b": true,
	"caption": true, "figcaption": true, "blockquote": true, "pre": true,
	"code": true, "time": true, "small": true, "article": true, "section": true,
}

// Element is one addressable node of a page snapshot.
type Element struct {
	Index       int
	XPath       string
	Tag         string
	Text        string
	Attrs       []html.Attribute
	Interactive bool
}

// Selector returns the playwright selector addressing the element.
func (e Element) Selector() string {
	return "xpath=" + e.XPath
}

// Line renders the element as one snapshot line: "[3] <button id="go"> Search".
func (e Element) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] <%s", e.Index, e.Tag)
	for _, a := range e.Attrs {
		fmt.Fprintf(&b, ` %s="%s"`, a.Key, html.EscapeString(a.Val))
	}
	b.WriteString(">")
	if e.Text != "" {
		b.WriteString(" ")
		b.WriteString(e.Text)
	}
	return b.String()
}

// Snapshot is the element list the model reasons over.
type Snapshot struct {
	Title       string
	Description string
	Elements    []Element
}

// Element returns the element with the given index.
func (s *Snapshot) Element(index int) (Element, bool) {
	if index < 0 || index >= len(s.Elements) {
		return Element{}, false
	}
	return s.Elements[index], true
}

// BuildSnapshot parses page HTML into indexed elements. Interactive elements
// are always included; other elements only when they carry their own text.
// XPaths are computed against the parsed tree, which matches the live DOM
// for HTML served through page content.
func BuildSnapshot(rawHTML string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	snap := &Snapshot{
		Title:       normalizeSpace(doc.Find("title").First().Text()),
		Description: strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", "")),
	}

	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Closest(skipSelector).Length() > 0 {
			return
		}
		n := s.Get(0)
		tag := strings.ToLower(n.Data)

		interactive := isInteractive(s, tag)
		var text string
		if interactive {
			text = normalizeSpace(s.Text())
			if text == "" {
				text = firstAttr(s, "aria-label", "placeholder", "value", "alt", "title")
			}
		} else {
			if !textTags[tag] || s.ParentsFiltered("a, button, label, select, summary").Length() > 0 {
				return
			}
			text = normalizeSpace(ownText(n))
			if text == "" {
				return
			}
		}

		snap.Elements = append(snap.Elements, Element{
			Index:       len(snap.Elements),
			XPath:       xpathOf(n),
			Tag:         tag,
			Text:        truncateText(text, maxElementText),
			Attrs:       preservedAttrs(tag, n.Attr),
			Interactive: interactive,
		})
	})

	return snap, nil
}

func isInteractive(s *goquery.Selection, tag string) bool {
	if interactiveTags[tag] {
		return true
	}
	if role, ok := s.Attr("role"); ok && interactiveRoles[strings.ToLower(role)] {
		return true
	}
	if _, ok := s.Attr("onclick"); ok {
		return true
	}
	if ce, ok := s.Attr("contenteditable"); ok && ce != "false" {
		return true
	}
	if ti, ok := s.Attr("tabindex"); ok && ti != "-1" {
		return true
	}
	return false
}

// ownText concatenates the node's direct text children.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteString(" ")
		}
	}
	return b.String()
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" {
			return normalizeSpace(v)
		}
	}
	return ""
}

// xpathOf builds an absolute, index-qualified XPath for an element node.
func xpathOf(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		pos := 1
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == cur.Data {
				pos++
			}
		}
		parts = append(parts, cur.Data+"["+strconv.Itoa(pos)+"]")
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// preservedAttrs keeps the attributes useful for identifying an element.
func preservedAttrs(tag string, attrs []html.Attribute) []html.Attribute {
	var out []html.Attribute
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if isGlobalAttribute(key) || strings.HasPrefix(key, "data-test") || isTagSpecificAttribute(tag, key) {
			out = append(out, html.Attribute{Key: key, Val: truncateText(a.Val, 80)})
		}
	}
	return out
}

func isGlobalAttribute(name string) bool {
	switch name {
	case "id", "name", "role", "aria-label", "title", "aria-expanded", "aria-checked", "aria-selected":
		return true
	}
	return false
}

func isTagSpecificAttribute(tag, name string) bool {
	switch tag {
	case "a":
		return name == "href"
	case "img":
		return name == "alt"
	case "input", "textarea", "select":
		return name == "type" || name == "placeholder" || name == "value" || name == "checked" || name == "disabled"
	case "button":
		return name == "type" || name == "disabled"
	case "option":
		return name == "value" || name == "selected"
	case "label":
		return name == "for"
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
