package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func intPtr(v int) *int { return &v }

func lispectorDocument() *domain.Document {
	return &domain.Document{
		ID: "doc-1",
		Metadata: domain.DocumentMetadata{
			SourceURL:  "https://pt.wikipedia.org/wiki/Clarice_Lispector",
			Title:      "Clarice Lispector",
			SourceFile: "data/clarice.json",
		},
		Sections: []domain.Section{
			{
				Kind:  domain.SectionKindSection,
				Title: "Biografia",
				Content: []domain.ContentItem{
					{Kind: domain.ContentParagraph, Text: "Clarice Lispector nasceu na Ucrânia."},
					{Kind: domain.ContentParagraph, Text: "  Mudou-se para o Brasil.  "},
				},
				Subsections: []domain.Section{
					{
						Kind:  domain.SectionKindSubsection,
						Title: "Infância",
						Content: []domain.ContentItem{
							{Kind: domain.ContentParagraph, Text: "Cresceu no Recife."},
						},
					},
				},
			},
			{
				Kind:  domain.SectionKindSection,
				Title: "Lista de obras",
				Content: []domain.ContentItem{
					{Kind: domain.ContentWorksList, Category: "Romance", Items: []domain.WorkItem{
						{Title: "Perto do Coração Selvagem", Year: intPtr(1943)},
						{Title: "A Hora da Estrela", Year: intPtr(1977)},
					}},
					{Kind: domain.ContentWorksList, Category: "Crônicas", Items: []domain.WorkItem{
						{Title: "A Descoberta do Mundo"},
					}},
				},
			},
		},
	}
}

func TestExtract_BlocksPerSectionAndSubsection(t *testing.T) {
	blocks := Extract(lispectorDocument())
	require.Len(t, blocks, 3)

	assert.Equal(t, "Biografia\n\nClarice Lispector nasceu na Ucrânia.\n\nMudou-se para o Brasil.", blocks[0].Text)
	assert.Equal(t, "Biografia > Infância\n\nCresceu no Recife.", blocks[1].Text)
	assert.Equal(t, "Lista de obras\n\n"+
		"Romance\n- Perto do Coração Selvagem (1943)\n- A Hora da Estrela (1977)\n\n"+
		"Crônicas\n- A Descoberta do Mundo", blocks[2].Text)
}

func TestExtract_Metadata(t *testing.T) {
	blocks := Extract(lispectorDocument())
	require.Len(t, blocks, 3)

	assert.Equal(t, domain.Metadata{
		domain.MetaSourceURL:  "https://pt.wikipedia.org/wiki/Clarice_Lispector",
		domain.MetaTitle:      "Clarice Lispector",
		domain.MetaSourceFile: "data/clarice.json",
		domain.MetaSection:    "Biografia",
	}, blocks[0].Metadata)

	assert.Equal(t, "Biografia", blocks[1].Metadata[domain.MetaSection])
	assert.Equal(t, "Infância", blocks[1].Metadata[domain.MetaSubsection])

	assert.Equal(t, "Lista de obras", blocks[2].Metadata[domain.MetaSection])
	assert.NotContains(t, blocks[2].Metadata, domain.MetaSubsection)
}

func TestExtract_MetadataIsNotShared(t *testing.T) {
	blocks := Extract(lispectorDocument())
	require.Len(t, blocks, 3)

	blocks[0].Metadata[domain.MetaTitle] = "changed"
	blocks[0].Metadata["extra"] = "x"

	assert.Equal(t, "Clarice Lispector", blocks[1].Metadata[domain.MetaTitle])
	assert.Equal(t, "Clarice Lispector", blocks[2].Metadata[domain.MetaTitle])
	assert.NotContains(t, blocks[1].Metadata, "extra")
}

func TestExtract_EmptySectionStillWalksSubsections(t *testing.T) {
	doc := &domain.Document{
		Sections: []domain.Section{{
			Kind:  domain.SectionKindSection,
			Title: "Obras",
			Content: []domain.ContentItem{
				{Kind: domain.ContentParagraph, Text: "   \n\t "},
			},
			Subsections: []domain.Section{
				{Kind: domain.SectionKindSubsection, Title: "Vazia"},
				{Kind: domain.SectionKindSubsection, Title: "Contos", Content: []domain.ContentItem{
					{Kind: domain.ContentParagraph, Text: "Laços de Família"},
				}},
			},
		}},
	}

	blocks := Extract(doc)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Obras > Contos\n\nLaços de Família", blocks[0].Text)
	assert.Equal(t, "Obras", blocks[0].Metadata[domain.MetaSection])
	assert.Equal(t, "Contos", blocks[0].Metadata[domain.MetaSubsection])
}

func TestExtract_SiblingSubsectionsDoNotLeakTitles(t *testing.T) {
	doc := &domain.Document{
		Sections: []domain.Section{{
			Kind:  domain.SectionKindSection,
			Title: "A",
			Subsections: []domain.Section{
				{Kind: domain.SectionKindSubsection, Title: "B", Content: []domain.ContentItem{
					{Kind: domain.ContentParagraph, Text: "b"},
				}},
				{Kind: domain.SectionKindSubsection, Title: "C", Content: []domain.ContentItem{
					{Kind: domain.ContentParagraph, Text: "c"},
				}},
			},
		}},
	}

	blocks := Extract(doc)
	require.Len(t, blocks, 2)
	assert.Equal(t, "A > B\n\nb", blocks[0].Text)
	assert.Equal(t, "A > C\n\nc", blocks[1].Text)
}

func TestExtract_IgnoresDeeperNesting(t *testing.T) {
	doc := &domain.Document{
		Sections: []domain.Section{{
			Title: "A",
			Subsections: []domain.Section{{
				Title: "B",
				Subsections: []domain.Section{{
					Title:   "C",
					Content: []domain.ContentItem{{Kind: domain.ContentParagraph, Text: "too deep"}},
				}},
			}},
		}},
	}

	assert.Empty(t, Extract(doc))
}

func TestExtract_NilDocument(t *testing.T) {
	assert.Nil(t, Extract(nil))
}

func TestRenderContent_SkipsEmptyWorksLists(t *testing.T) {
	items := []domain.ContentItem{
		{Kind: domain.ContentWorksList, Category: "Teatro"},
		{Kind: domain.ContentWorksList, Items: []domain.WorkItem{{Title: "A Legião Estrangeira", Year: intPtr(1964)}}},
	}

	assert.Equal(t, "- A Legião Estrangeira (1964)", RenderContent(items))
}
