package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/types"
)

func TestSegment_HTML(t *testing.T) {
	input := `<h2 class="title">Pourquoi automatiser</h2>
<p>Les appels <strong>saturent</strong> le secrétariat.</p>
<H3>Les bénéfices</H3>
<ul>
  <li>Moins d'attente</li>
  <li>Un <a href="https://callrounded.com/agenda">agenda</a> à jour</li>
</ul>
Une ligne sans balise
<p>Fin &amp; merci</p>`

	blocks := Segment(input, FormatHTML)
	require.Len(t, blocks, 7)

	assert.Equal(t, types.RawBlock{Style: types.StyleHeading2, Text: "Pourquoi automatiser"}, blocks[0])
	assert.Equal(t, types.RawBlock{Style: types.StyleNormal, Text: "Les appels **saturent** le secrétariat."}, blocks[1])
	assert.Equal(t, types.RawBlock{Style: types.StyleHeading3, Text: "Les bénéfices"}, blocks[2])
	assert.Equal(t, types.RawBlock{Style: types.StyleNormal, ListItem: types.ListBullet, Text: "Moins d'attente"}, blocks[3])
	assert.Equal(t, types.RawBlock{Style: types.StyleNormal, ListItem: types.ListBullet, Text: "Un [agenda](https://callrounded.com/agenda) à jour"}, blocks[4])
	assert.Equal(t, types.RawBlock{Style: types.StyleNormal, Text: "Une ligne sans balise"}, blocks[5])
	assert.Equal(t, types.RawBlock{Style: types.StyleNormal, Text: "Fin & merci"}, blocks[6])
}

func TestSegment_HTMLInlineTagsStripped(t *testing.T) {
	blocks := Segment(`<p>Un <em>texte</em> <span class="x">simple</span></p>`, FormatHTML)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Un texte simple", blocks[0].Text)
}

func TestSegment_HTMLContainersWalked(t *testing.T) {
	blocks := Segment(`<article><div><h2>A</h2><p>b</p></div><section><ol><li>c</li></ol></section></article>`, FormatHTML)
	require.Len(t, blocks, 3)
	assert.Equal(t, []types.BlockStyle{types.StyleHeading2, types.StyleNormal, types.StyleNormal},
		[]types.BlockStyle{blocks[0].Style, blocks[1].Style, blocks[2].Style})
	assert.Equal(t, types.ListBullet, blocks[2].ListItem)
}

func TestToDocument_HTMLKeepsMarks(t *testing.T) {
	doc := ToDocument(`<p>Essayez <a href="https://callrounded.com"><strong>Donna</strong></a> maintenant</p>`, FormatAuto)
	require.Len(t, doc.Blocks, 1)

	spans := doc.Blocks[0].Spans
	require.Len(t, spans, 3)
	assert.Equal(t, "Donna", spans[1].Text)
	assert.True(t, spans[1].IsBold())
	key, ok := spans[1].LinkKey()
	require.True(t, ok)
	assert.Equal(t, "https://callrounded.com", doc.Blocks[0].Links[key].Href)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Titre Un texte & plus", PlainText("<h2>Titre</h2>\n<p>Un <b>texte</b> &amp; plus</p>"))
}
