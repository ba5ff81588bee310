package docx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var n driven.Normaliser = New()
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_Headings(t *testing.T) {
	n := NewWithExtractor(func([]byte) ([]Paragraph, error) {
		return []Paragraph{
			{Level: titleLevel, Text: "Clarice Lispector"},
			{Text: "Escritora e jornalista."},
			{Level: 1, Text: "Biografia"},
			{Text: "Nasceu   na\nUcrânia."},
			{Level: 2, Text: "Infância"},
			{Text: "Viveu no Recife."},
			{Text: "   "},
			{Level: 1, Text: "Obras"},
			{Level: 3, Text: "Romances"},
			{Text: "A Hora da Estrela."},
		}, nil
	})

	doc, err := n.Normalise(context.Background(), &domain.RawDocument{URI: "/docs/clarice.docx", MIMEType: MIMEType})
	require.NoError(t, err)

	assert.Equal(t, "Clarice Lispector", doc.Metadata.Title)
	assert.Equal(t, "/docs/clarice.docx", doc.Metadata.SourceFile)
	require.Len(t, doc.Sections, 3)

	assert.Equal(t, "", doc.Sections[0].Title)
	assert.Equal(t, "Escritora e jornalista.", doc.Sections[0].Content[0].Text)

	bio := doc.Sections[1]
	assert.Equal(t, "Biografia", bio.Title)
	require.Len(t, bio.Content, 1)
	assert.Equal(t, "Nasceu na Ucrânia.", bio.Content[0].Text)
	require.Len(t, bio.Subsections, 1)
	assert.Equal(t, "Infância", bio.Subsections[0].Title)
	assert.Equal(t, "Viveu no Recife.", bio.Subsections[0].Content[0].Text)

	assert.Equal(t, "Romances", doc.Sections[2].Subsections[0].Title)
}

func TestNormalise_TitleFromFileName(t *testing.T) {
	n := NewWithExtractor(func([]byte) ([]Paragraph, error) {
		return []Paragraph{{Text: "Texto."}}, nil
	})

	doc, err := n.Normalise(context.Background(), &domain.RawDocument{URI: "/docs/notas_de_leitura.docx"})
	require.NoError(t, err)
	assert.Equal(t, "notas de leitura", doc.Metadata.Title)
}

func TestNormalise_ExtractError(t *testing.T) {
	n := NewWithExtractor(func([]byte) ([]Paragraph, error) {
		return nil, errors.New("not a zip")
	})

	_, err := n.Normalise(context.Background(), &domain.RawDocument{URI: "x.docx"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractParagraphs_Garbage(t *testing.T) {
	_, err := ExtractParagraphs([]byte("PK not really a docx"))
	assert.Error(t, err)
}

func TestStyleLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 2": 2,
		"Heading6":  6,
		"Heading7":  0,
		"Heading10": 0,
		"Title":     titleLevel,
		"Normal":    0,
		"":          0,
	}
	for style, want := range tests {
		assert.Equal(t, want, StyleLevel(style), style)
	}
}
