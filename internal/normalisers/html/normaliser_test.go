package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const wikipediaPage = `<!DOCTYPE html>
<html><head>
<title>Clarice Lispector – Wikipédia, a enciclopédia livre</title>
<link rel="canonical" href="https://pt.wikipedia.org/wiki/Clarice_Lispector">
</head><body>
<h1 id="firstHeading">Clarice Lispector</h1>
<div id="mw-content-text"><div class="mw-parser-output">
<table class="infobox">
  <tr><th>Nascimento</th><td>10 de dezembro de 1920<br>Chechelnyk<sup>[1]</sup></td></tr>
  <tr><td colspan="2">sem cabeçalho</td></tr>
</table>
<p>Parágrafo de abertura que é descartado.</p>
<div class="mw-heading mw-heading2"><h2 id="Biografia">Biografia</h2><span class="mw-editsection">[<a>editar</a> | <a>editar código-fonte</a>]</span></div>
<p>Clarice Lispector nasceu na <a href="/wiki/Ucrânia">Ucrânia</a>.<sup class="reference">[2]</sup></p>
<ul><li>lista fora de obras</li></ul>
<h3>Infância<span class="mw-editsection">[editar | editar código-fonte]</span></h3>
<p>Cresceu no   Recife.</p>
<h2>Lista de obras</h2>
<h3>Romance</h3>
<ul>
  <li>Perto do Coração Selvagem (1943)</li>
  <li>A Hora da Estrela (1977)</li>
</ul>
<p>Contos</p>
<ul><li>Laços de Família</li></ul>
<h2>Referências</h2>
<p>Não deve aparecer.</p>
</div></div>
</body></html>`

func normalise(t *testing.T, page, uri string) *domain.Document {
	t.Helper()
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      uri,
		MIMEType: "text/html",
		Content:  []byte(page),
	})
	require.NoError(t, err)
	return doc
}

func TestNormalise_Wikipedia(t *testing.T) {
	doc := normalise(t, wikipediaPage, "clarice.html")

	assert.Equal(t, "Clarice Lispector", doc.Metadata.Title)
	assert.Equal(t, "https://pt.wikipedia.org/wiki/Clarice_Lispector", doc.Metadata.SourceURL)
	assert.Equal(t, map[string]string{"Nascimento": "10 de dezembro de 1920 Chechelnyk"}, doc.Metadata.Infobox)

	require.Len(t, doc.Sections, 2)

	bio := doc.Sections[0]
	assert.Equal(t, "Biografia", bio.Title)
	require.Len(t, bio.Content, 1, "lead paragraph and lists outside the works section are dropped")
	assert.Equal(t, "Clarice Lispector nasceu na Ucrânia.", bio.Content[0].Text)
	require.Len(t, bio.Subsections, 1)
	assert.Equal(t, "Infância", bio.Subsections[0].Title)
	assert.Equal(t, "Cresceu no Recife.", bio.Subsections[0].Content[0].Text)

	works := doc.Sections[1]
	assert.Equal(t, WorksSection, works.Title)
	require.Len(t, works.Content, 2)

	romance := works.Content[0]
	assert.Equal(t, domain.ContentWorksList, romance.Kind)
	assert.Equal(t, "Romance", romance.Category)
	require.Len(t, romance.Items, 2)
	assert.Equal(t, "Perto do Coração Selvagem", romance.Items[0].Title)
	require.NotNil(t, romance.Items[0].Year)
	assert.Equal(t, 1943, *romance.Items[0].Year)

	contos := works.Content[1]
	assert.Equal(t, "Contos", contos.Category)
	assert.Nil(t, contos.Items[0].Year)

	// The paragraph "Contos" lands in the open Romance subsection.
	require.Len(t, works.Subsections, 1)
	assert.Equal(t, "Contos", works.Subsections[0].Content[0].Text)
}

func TestNormalise_GenericPage(t *testing.T) {
	page := `<html><head><title>Notas</title><script>var x = 1;</script></head><body>
<nav>menu</nav>
<p>Introdução.</p>
<h2>Temas</h2>
<ol><li>Epifania</li><li>Linguagem<ul><li>silêncio</li></ul></li></ol>
<h4>Detalhe</h4>
<p>Texto [sic] final.</p>
</body></html>`

	doc := normalise(t, page, "notas.html")
	assert.Equal(t, "Notas", doc.Metadata.Title)
	assert.Nil(t, doc.Metadata.Infobox)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "", doc.Sections[0].Title)
	assert.Equal(t, "Introdução.", doc.Sections[0].Content[0].Text)

	temas := doc.Sections[1]
	assert.Equal(t, "- Epifania\n- Linguagem\n- silêncio", temas.Content[0].Text)
	require.Len(t, temas.Subsections, 1)
	assert.Equal(t, "Detalhe", temas.Subsections[0].Title)
	assert.Equal(t, "Texto final.", temas.Subsections[0].Content[0].Text)
}

func TestNormalise_TitleFallback(t *testing.T) {
	doc := normalise(t, "<p>sem título</p>", "/tmp/pagina_solta.html")
	assert.Equal(t, "pagina solta", doc.Metadata.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
