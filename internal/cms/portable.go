// Package cms publishes articles to a Sanity dataset.
package cms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// PortableBlock is a Sanity block-content paragraph
type PortableBlock struct {
	Key      string         `json:"_key"`
	Type     string         `json:"_type"`
	Style    string         `json:"style"`
	ListItem string         `json:"listItem,omitempty"`
	Level    int            `json:"level,omitempty"`
	Children []PortableSpan `json:"children"`
	MarkDefs []MarkDef      `json:"markDefs"`
}

// PortableSpan is a run of text inside a PortableBlock
type PortableSpan struct {
	Key   string   `json:"_key"`
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// MarkDef is a link annotation referenced from span marks by key
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href"`
}

// NewKey returns a short random key for _key fields
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ToPortableText serializes doc into Sanity block content. Link keys are
// replaced with keys from newKey so they stay unique across the document.
func ToPortableText(doc types.Document, newKey func() string) []PortableBlock {
	if newKey == nil {
		newKey = NewKey
	}

	blocks := make([]PortableBlock, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		pb := PortableBlock{
			Key:      newKey(),
			Type:     "block",
			Style:    string(b.Style),
			Children: make([]PortableSpan, 0, len(b.Spans)),
			MarkDefs: []MarkDef{},
		}
		if b.ListItem != types.ListNone {
			pb.ListItem = string(b.ListItem)
			pb.Level = 1
		}

		renamed := make(map[string]string, len(b.Links))
		define := func(linkKey string) string {
			if k, ok := renamed[linkKey]; ok {
				return k
			}
			k := newKey()
			renamed[linkKey] = k
			pb.MarkDefs = append(pb.MarkDefs, MarkDef{Key: k, Type: "link", Href: b.Links[linkKey].Href})
			return k
		}

		for _, s := range b.Spans {
			marks := make([]string, 0, len(s.Marks))
			for _, m := range s.Marks {
				if m == types.MarkBold {
					marks = append(marks, m)
					continue
				}
				if _, ok := b.Links[m]; ok {
					marks = append(marks, define(m))
				}
			}
			pb.Children = append(pb.Children, PortableSpan{Key: newKey(), Type: "span", Text: s.Text, Marks: marks})
		}

		// annotations no span points at are kept so nothing is dropped
		var orphans []string
		for k := range b.Links {
			if _, ok := renamed[k]; !ok {
				orphans = append(orphans, k)
			}
		}
		sort.Strings(orphans)
		for _, k := range orphans {
			define(k)
		}

		blocks = append(blocks, pb)
	}
	return blocks
}

// FromPortableText rebuilds a Document from Sanity block content.
// Link keys become link0, link1, ... per block in markDefs order.
func FromPortableText(blocks []PortableBlock) types.Document {
	doc := types.Document{Blocks: make([]types.Block, 0, len(blocks))}
	for _, pb := range blocks {
		b := types.Block{
			Style:    types.BlockStyle(pb.Style),
			ListItem: types.ListItem(pb.ListItem),
		}

		renamed := make(map[string]string, len(pb.MarkDefs))
		for i, def := range pb.MarkDefs {
			key := fmt.Sprintf("link%d", i)
			renamed[def.Key] = key
			if b.Links == nil {
				b.Links = make(map[string]types.LinkAnnotation, len(pb.MarkDefs))
			}
			b.Links[key] = types.LinkAnnotation{Key: key, Href: def.Href}
		}

		for _, s := range pb.Children {
			marks := make([]string, 0, len(s.Marks))
			for _, m := range s.Marks {
				if k, ok := renamed[m]; ok {
					marks = append(marks, k)
				} else if m == types.MarkBold {
					marks = append(marks, m)
				}
			}
			b.Spans = append(b.Spans, types.StyledSpan{Text: s.Text, Marks: marks})
		}
		doc.Blocks = append(doc.Blocks, b)
	}
	return doc
}
