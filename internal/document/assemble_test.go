package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/types"
)

func TestAssemble_PreservesOrderAndStyle(t *testing.T) {
	raw := []types.RawBlock{
		{Style: types.StyleHeading2, Text: "Titre"},
		{Style: types.StyleNormal, ListItem: types.ListBullet, Text: "item **gras**"},
		{Style: types.StyleNormal, Text: "voir [ici](https://x.test)"},
	}

	doc := Assemble(raw)
	require.Len(t, doc.Blocks, 3)

	for i, b := range doc.Blocks {
		assert.Equal(t, raw[i].Style, b.Style)
		assert.Equal(t, raw[i].ListItem, b.ListItem)
		assert.NotEmpty(t, b.Spans)
	}
	assert.Nil(t, doc.Blocks[0].Links)
	assert.Len(t, doc.Blocks[2].Links, 1)
}

func TestAssemble_LinkKeysScopedToBlock(t *testing.T) {
	doc := Assemble([]types.RawBlock{
		{Style: types.StyleNormal, Text: "[a](https://a.test)"},
		{Style: types.StyleNormal, Text: "[b](https://b.test)"},
	})

	for _, b := range doc.Blocks {
		for _, s := range b.Spans {
			key, ok := s.LinkKey()
			require.True(t, ok)
			_, found := b.Links[key]
			assert.True(t, found)
		}
	}
	assert.Equal(t, "https://b.test", doc.Blocks[1].Links["link0"].Href)
}

func TestFlatten(t *testing.T) {
	doc := Assemble([]types.RawBlock{
		{Style: types.StyleHeading2, Text: "Titre"},
		{Style: types.StyleNormal, Text: "Texte **gras**."},
		{Style: types.StyleNormal, ListItem: types.ListBullet, Text: "un"},
		{Style: types.StyleNormal, ListItem: types.ListBullet, Text: "deux"},
		{Style: types.StyleHeading3, Text: "Sous-titre"},
	})

	want := "## Titre\n\nTexte **gras**.\n\n- un\n- deux\n\n### Sous-titre\n"
	assert.Equal(t, want, Flatten(doc))
	assert.Equal(t, "", Flatten(types.Document{}))
}

func TestText(t *testing.T) {
	doc := ToDocument("## Titre\n\nUn [lien](https://x.test) **fort**.", FormatPlain)
	assert.Equal(t, "Titre\nUn lien fort.", Text(doc))
}
