// Package document converts plain text, lightweight markdown, and HTML into the
// block document model stored by the CMS.
package document

import (
	"strings"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// Assemble mark-parses each raw block and wraps it as a Block, preserving order.
func Assemble(raw []types.RawBlock) types.Document {
	doc := types.Document{Blocks: make([]types.Block, 0, len(raw))}
	for _, rb := range raw {
		spans, links := ParseMarks(rb.Text)
		doc.Blocks = append(doc.Blocks, types.Block{
			Style:    rb.Style,
			ListItem: rb.ListItem,
			Spans:    spans,
			Links:    links,
		})
	}
	return doc
}

// ToDocument segments and assembles a raw document in one step.
func ToDocument(raw string, format Format) types.Document {
	return Assemble(Segment(raw, format))
}

// Flatten renders a document back to lightweight markdown: "## " and "### " headings,
// "- " bullets, and paragraphs separated by blank lines. Segmenting the output with
// FormatPlain yields the same block styles: a paragraph that would read as a title or
// sub-heading on its own line is broken over two lines.
func Flatten(doc types.Document) string {
	var sb strings.Builder
	for i, b := range doc.Blocks {
		if i > 0 {
			prevBullet := doc.Blocks[i-1].ListItem == types.ListBullet
			if prevBullet && b.ListItem == types.ListBullet {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		text := FormatSpans(b.Spans, b.Links)
		if b.Style == types.StyleNormal && b.ListItem != types.ListBullet {
			text = flattenParagraph(text, i == 0)
		}
		sb.WriteString(linePrefix(b))
		sb.WriteString(text)
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// flattenParagraph returns text as one or two physical lines that the plain
// segmenter reads back as a single normal paragraph. A paragraph is always
// followed by a blank line, so its last line must not look like a sub-heading.
func flattenParagraph(text string, first bool) string {
	if !readsAsStructure(text, first) {
		return text
	}
	if split, ok := splitParagraph(text, first); ok {
		return split
	}
	if first {
		// the title check only looks at the first lines of a document
		if split, ok := splitParagraph(text, false); ok {
			return strings.Repeat("\n", titleWindow) + split
		}
		if !readsAsStructure(text, false) {
			return strings.Repeat("\n", titleWindow) + text
		}
	}
	return text
}

// splitParagraph breaks text at the first space where neither line is reclassified.
func splitParagraph(text string, first bool) (string, bool) {
	for i := 1; i < len(text)-1; i++ {
		if text[i] != ' ' || text[i-1] == ' ' || text[i+1] == ' ' {
			continue
		}
		head, tail := text[:i], text[i+1:]
		if hasStructuralMarker(head) || (first && isTitleLine(head)) {
			continue
		}
		if readsAsStructure(tail, false) {
			continue
		}
		return head + "\n" + tail, true
	}
	return "", false
}

// readsAsStructure reports whether line, followed by a blank line, would not
// segment as a normal paragraph.
func readsAsStructure(line string, first bool) bool {
	return hasStructuralMarker(line) || isSubheading(line) || (first && isTitleLine(line))
}

func linePrefix(b types.Block) string {
	if b.ListItem == types.ListBullet {
		return "- "
	}
	switch b.Style {
	case types.StyleHeading2:
		return "## "
	case types.StyleHeading3:
		return "### "
	default:
		return ""
	}
}

// Text returns the visible text of a document, one block per line, without markup.
func Text(doc types.Document) string {
	lines := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		lines = append(lines, b.PlainText())
	}
	return strings.Join(lines, "\n")
}
