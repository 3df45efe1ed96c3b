// Package document converts plain text, lightweight markdown, and HTML into the
// block document model stored by the CMS.
package document

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// Format identifies the markup family of a raw document
type Format string

const (
	// FormatAuto picks FormatHTML when block-level tags are present
	FormatAuto Format = "auto"
	// FormatPlain covers plain text and lightweight markdown
	FormatPlain Format = "plain"
	FormatHTML  Format = "html"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatPlain, "markdown", "md", "text":
		return FormatPlain, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected auto, plain or html)", s)
	}
}

// CallToActionURL is the canonical target of the "Découvrir Donna" call to action.
const CallToActionURL = "https://callrounded.com/cas-usage/secretariat-medical"

const (
	titleWindow          = 3
	maxTitleLen          = 100
	maxNumberedBulletLen = 60
	maxSubheadingLen     = 80
	maxSubheadingWords   = 10
)

var (
	htmlBlockPattern    = regexp.MustCompile(`(?i)<(h[1-6]|p|ul|ol|li)(\s[^>]*)?>`)
	headingPattern      = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	numberedPattern     = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	bulletPattern       = regexp.MustCompile(`^(?:•|-|\*)\s+(.+)$`)
	conclusionPattern   = regexp.MustCompile(`(?i)^conclusion\b\s*:?\s*(.+)$`)
	ruleLinePattern     = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	callToActionPattern = regexp.MustCompile(`:\s*(Découvrir\s+Donna|Discover\s+Donna)`)
)

// DetectFormat reports FormatHTML when the input carries block-level HTML tags.
func DetectFormat(raw string) Format {
	if htmlBlockPattern.MatchString(raw) {
		return FormatHTML
	}
	return FormatPlain
}

// Segment splits a raw document into typed blocks in source order.
// It never returns an empty sequence: input without any recognizable block
// becomes a single normal block holding the trimmed input.
func Segment(raw string, format Format) []types.RawBlock {
	if format == FormatAuto || format == "" {
		format = DetectFormat(raw)
	}

	var blocks []types.RawBlock
	if format == FormatHTML {
		blocks = segmentHTML(raw)
	} else {
		blocks = segmentPlain(raw)
	}

	if len(blocks) == 0 {
		text := strings.TrimSpace(raw)
		if format == FormatHTML {
			text = PlainText(raw)
		}
		return []types.RawBlock{{Style: types.StyleNormal, Text: text}}
	}
	return blocks
}

type plainSegmenter struct {
	blocks    []types.RawBlock
	paragraph []string
}

func segmentPlain(raw string) []types.RawBlock {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	s := &plainSegmenter{}

	seenContent := false
	for i, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			s.flush()
			continue
		}

		first := !seenContent
		seenContent = true
		if first && i < titleWindow && isTitleLine(line) {
			s.add(types.StyleHeading2, types.ListNone, line)
			continue
		}

		s.classify(line, nextIsBlank(lines, i))
	}

	s.normalizeCallToAction()
	s.flush()
	return s.blocks
}

func (s *plainSegmenter) classify(line string, followedByBlank bool) {
	if ruleLinePattern.MatchString(line) {
		s.flush()
		return
	}

	if m := headingPattern.FindStringSubmatch(line); m != nil {
		style := types.StyleHeading2
		if len(m[1]) >= 3 {
			style = types.StyleHeading3
		}
		s.add(style, types.ListNone, strings.TrimSpace(m[2]))
		return
	}

	if m := numberedPattern.FindStringSubmatch(line); m != nil {
		if utf8.RuneCountInString(line) < maxNumberedBulletLen {
			s.add(types.StyleNormal, types.ListBullet, strings.TrimSpace(m[2]))
		} else {
			s.add(types.StyleHeading2, types.ListNone, line)
		}
		return
	}

	if m := bulletPattern.FindStringSubmatch(line); m != nil {
		s.add(types.StyleNormal, types.ListBullet, strings.TrimSpace(m[1]))
		return
	}

	if m := conclusionPattern.FindStringSubmatch(line); m != nil {
		s.add(types.StyleHeading2, types.ListNone, "Conclusion : "+strings.TrimSpace(m[1]))
		return
	}

	if followedByBlank && isSubheading(line) {
		s.add(types.StyleHeading3, types.ListNone, line)
		return
	}

	s.paragraph = append(s.paragraph, line)
}

func (s *plainSegmenter) add(style types.BlockStyle, item types.ListItem, text string) {
	s.flush()
	s.blocks = append(s.blocks, types.RawBlock{Style: style, ListItem: item, Text: text})
}

func (s *plainSegmenter) flush() {
	if len(s.paragraph) == 0 {
		return
	}
	s.blocks = append(s.blocks, types.RawBlock{
		Style: types.StyleNormal,
		Text:  strings.Join(s.paragraph, " "),
	})
	s.paragraph = nil
}

// normalizeCallToAction links a bare call-to-action phrase in the pending paragraph.
func (s *plainSegmenter) normalizeCallToAction() {
	if len(s.paragraph) == 0 {
		return
	}
	text := strings.Join(s.paragraph, " ")
	s.paragraph = []string{NormalizeCallToAction(text)}
}

// NormalizeCallToAction rewrites every ": Découvrir Donna" (or its English form) into a
// markdown link to CallToActionURL. An occurrence followed by a "]" on the same line
// is treated as already linked.
func NormalizeCallToAction(text string) string {
	matches := callToActionPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, loc := range matches {
		rest := text[loc[1]:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		if strings.Contains(rest, "]") {
			continue
		}
		phrase := strings.Join(strings.Fields(text[loc[2]:loc[3]]), " ")
		sb.WriteString(text[last:loc[0]])
		sb.WriteString(": [" + phrase + "](" + CallToActionURL + ")")
		last = loc[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func nextIsBlank(lines []string, i int) bool {
	return i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == ""
}

// isTitleLine recognizes an unmarked document title among the first lines.
func isTitleLine(line string) bool {
	if hasStructuralMarker(line) {
		return false
	}
	return utf8.RuneCountInString(line) < maxTitleLen && !strings.HasSuffix(line, ".")
}

func hasStructuralMarker(line string) bool {
	return headingPattern.MatchString(line) ||
		numberedPattern.MatchString(line) ||
		bulletPattern.MatchString(line) ||
		conclusionPattern.MatchString(line) ||
		ruleLinePattern.MatchString(line)
}

// isSubheading is the heuristic for sub-titles that were not marked in the source.
func isSubheading(line string) bool {
	if utf8.RuneCountInString(line) >= maxSubheadingLen || strings.HasSuffix(line, ".") {
		return false
	}
	if len(strings.Fields(line)) >= maxSubheadingWords {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return false
	}
	for _, r := range line {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
