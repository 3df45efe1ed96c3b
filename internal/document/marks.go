// Package document converts plain text, lightweight markdown, and HTML into the
// block document model stored by the CMS.
package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// inlinePattern matches either a markdown link (groups 1-2) or a bold run (group 3).
// Alternatives are tried left to right so a link label wrapping bold wins over the bold.
var inlinePattern = regexp.MustCompile(`\[([^\]]+)\]\(((?:https?://|/)[^\s)]*)\)|\*\*([^*]+?)\*\*`)

var boldLabelPattern = regexp.MustCompile(`^\*\*(.+)\*\*$`)

// Links is the link annotation table of one block, keyed by link key
type Links map[string]types.LinkAnnotation

// ParseMarks splits inline text into styled spans and the link annotations they reference.
// It never fails: unmatched delimiters stay literal, and the result always holds at least one span.
func ParseMarks(text string) ([]types.StyledSpan, Links) {
	p := &markParser{links: Links{}}
	p.parse(text, nil)

	if len(p.spans) == 0 {
		return []types.StyledSpan{{Text: text, Marks: []string{}}}, nil
	}
	if len(p.links) == 0 {
		return p.spans, nil
	}
	return p.spans, p.links
}

type markParser struct {
	spans []types.StyledSpan
	links Links
	next  int
}

func (p *markParser) parse(text string, inherited []string) {
	last := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		p.emit(text[last:m[0]], inherited)

		if m[2] >= 0 {
			label := text[m[2]:m[3]]
			href := text[m[4]:m[5]]
			marks := append([]string(nil), inherited...)
			if b := boldLabelPattern.FindStringSubmatch(label); b != nil {
				label = b[1]
				marks = appendMark(marks, types.MarkBold)
			}
			key := p.addLink(href)
			p.emit(label, append(marks, key))
		} else {
			// bold content may itself hold links
			p.parse(text[m[6]:m[7]], appendMark(inherited, types.MarkBold))
		}
		last = m[1]
	}
	p.emit(text[last:], inherited)
}

func (p *markParser) emit(text string, marks []string) {
	if text == "" {
		return
	}
	out := make([]string, len(marks))
	copy(out, marks)
	p.spans = append(p.spans, types.StyledSpan{Text: text, Marks: out})
}

func (p *markParser) addLink(href string) string {
	key := fmt.Sprintf("link%d", p.next)
	p.next++
	p.links[key] = types.LinkAnnotation{Key: key, Href: href}
	return key
}

func appendMark(marks []string, mark string) []string {
	for _, m := range marks {
		if m == mark {
			return marks
		}
	}
	out := make([]string, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, mark)
}

// FormatSpans renders spans back to inline markup: **bold** and [label](href).
func FormatSpans(spans []types.StyledSpan, links map[string]types.LinkAnnotation) string {
	var sb strings.Builder
	for _, s := range spans {
		text := s.Text
		if s.IsBold() && strings.TrimSpace(text) != "" {
			text = wrapBold(text)
		}
		if key, ok := s.LinkKey(); ok {
			if link, found := links[key]; found {
				text = "[" + text + "](" + link.Href + ")"
			}
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// wrapBold keeps surrounding whitespace outside the delimiters.
func wrapBold(text string) string {
	trimmed := strings.TrimSpace(text)
	lead := text[:strings.Index(text, trimmed)]
	trail := text[len(lead)+len(trimmed):]
	return lead + "**" + trimmed + "**" + trail
}
