// Package document converts plain text, lightweight markdown, and HTML into the
// block document model stored by the CMS.
package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// htmlSegmenter walks parsed HTML in document order. Loose text and inline
// elements between blocks accumulate in pending and become paragraphs, one per line.
type htmlSegmenter struct {
	blocks  []types.RawBlock
	pending strings.Builder
}

func segmentHTML(raw string) []types.RawBlock {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	h := &htmlSegmenter{}
	h.walk(doc.Find("body").Contents())
	h.flushPending()
	return h.blocks
}

func (h *htmlSegmenter) walk(nodes *goquery.Selection) {
	nodes.Each(func(_ int, n *goquery.Selection) {
		switch name := goquery.NodeName(n); name {
		case "#text":
			h.pending.WriteString(n.Text())
		case "#comment", "script", "style", "head", "title", "meta", "link":
			// not content
		case "h1", "h2":
			h.addBlock(types.StyleHeading2, types.ListNone, n)
		case "h3", "h4", "h5", "h6":
			h.addBlock(types.StyleHeading3, types.ListNone, n)
		case "p":
			h.addBlock(types.StyleNormal, types.ListNone, n)
		case "ul", "ol":
			h.flushPending()
			n.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				h.addBlock(types.StyleNormal, types.ListBullet, li)
			})
		case "br":
			h.pending.WriteString("\n")
		case "div", "section", "article", "main", "header", "footer", "aside", "blockquote", "body", "html", "figure":
			h.flushPending()
			h.walk(n.Contents())
			h.flushPending()
		default:
			h.pending.WriteString(inlineMarkup(n))
		}
	})
}

func (h *htmlSegmenter) addBlock(style types.BlockStyle, item types.ListItem, n *goquery.Selection) {
	h.flushPending()
	text := collapseSpace(inlineMarkup(n))
	if text == "" {
		return
	}
	h.blocks = append(h.blocks, types.RawBlock{Style: style, ListItem: item, Text: text})
}

func (h *htmlSegmenter) flushPending() {
	if h.pending.Len() == 0 {
		return
	}
	for _, line := range strings.Split(h.pending.String(), "\n") {
		if text := collapseSpace(line); text != "" {
			h.blocks = append(h.blocks, types.RawBlock{Style: types.StyleNormal, Text: text})
		}
	}
	h.pending.Reset()
}

// inlineMarkup renders the children of n as inline markup understood by ParseMarks.
// strong/b become **bold**, a[href] becomes [label](href), other tags reduce to their text.
func inlineMarkup(n *goquery.Selection) string {
	var sb strings.Builder
	n.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			sb.WriteString(c.Text())
		case "#comment", "script", "style":
		case "br":
			sb.WriteString(" ")
		case "strong", "b":
			inner := inlineMarkup(c)
			if strings.TrimSpace(inner) == "" {
				sb.WriteString(inner)
				return
			}
			sb.WriteString(wrapBold(collapseInner(inner)))
		case "a":
			inner := collapseSpace(inlineMarkup(c))
			href, ok := c.Attr("href")
			if !ok || strings.TrimSpace(href) == "" || inner == "" {
				sb.WriteString(inner)
				return
			}
			sb.WriteString("[" + inner + "](" + strings.TrimSpace(href) + ")")
		default:
			sb.WriteString(inlineMarkup(c))
		}
	})
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseInner collapses inner whitespace but keeps one leading and trailing space when present.
func collapseInner(s string) string {
	out := collapseSpace(s)
	if strings.TrimLeft(s, " \t\n\r") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\n\r") != s {
		out += " "
	}
	return out
}

// PlainText strips every tag from an HTML fragment and returns its text with collapsed whitespace.
func PlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return collapseSpace(doc.Text())
}
