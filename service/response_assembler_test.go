package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/wisdom-rag/types"
)

func TestResponseAssembler_Confidence(t *testing.T) {
	a := NewResponseAssembler(AssemblerConfig{ConfidenceThreshold: 0.5})

	result := a.Assemble(types.Answer{Summary: "s"}, []types.RetrievalResult{
		passage("a", 1, 0.9),
		passage("b", 2, 0.6),
		passage("c", 3, 0.3),
	})

	assert.Equal(t, types.Confidence{MatchedPrinciples: 2, TotalPrinciples: 3}, result.Confidence)
}

func TestResponseAssembler_ThresholdIsExclusive(t *testing.T) {
	a := NewResponseAssembler(AssemblerConfig{})

	result := a.Assemble(types.Answer{}, []types.RetrievalResult{passage("a", 1, 0.5)})

	assert.Equal(t, 0, result.Confidence.MatchedPrinciples)
	assert.Equal(t, 1, result.Confidence.TotalPrinciples)
}

func TestResponseAssembler_NoResultsUsesPlaceholders(t *testing.T) {
	a := NewResponseAssembler(AssemblerConfig{DocumentsBaseURL: "http://localhost:5000/api/pdf"})

	result := a.Assemble(types.Answer{Summary: "s", Steps: []string{"x"}}, nil)

	require.NotNil(t, result.Source.Book)
	require.NotNil(t, result.Source.Chapter)
	assert.Equal(t, UnknownPlaceholder, *result.Source.Book)
	assert.Equal(t, UnknownPlaceholder, *result.Source.Chapter)
	assert.Nil(t, result.Source.Page)
	assert.Nil(t, result.Source.PDFURL)
	assert.Equal(t, types.Confidence{}, result.Confidence)
	assert.NotEmpty(t, result.ID)
}

func TestResponseAssembler_CitationFromTopResult(t *testing.T) {
	a := NewResponseAssembler(AssemblerConfig{DocumentsBaseURL: "http://docs.local/files/"})

	result := a.Assemble(types.Answer{}, []types.RetrievalResult{
		passage("Chapter 4 The Calm Mind", 12, 0.8),
		passage("Chapter 9", 30, 0.7),
	})

	assert.Equal(t, "Mind Power", *result.Source.Book)
	assert.Equal(t, "Chapter 4", *result.Source.Chapter)
	assert.Equal(t, 12, *result.Source.Page)
	assert.Equal(t, "http://docs.local/files/Mind_Power.pdf", *result.Source.PDFURL)
}

func TestResponseAssembler_MarathiChapter(t *testing.T) {
	a := NewResponseAssembler(AssemblerConfig{})

	result := a.Assemble(types.Answer{}, []types.RetrievalResult{passage("प्रकरण 3 मन", 5, 0.8)})

	assert.Equal(t, "Chapter 3", *result.Source.Chapter)
	assert.Nil(t, result.Source.PDFURL)
}

func TestResponseAssembler_FreshIDs(t *testing.T) {
	a := NewResponseAssembler(AssemblerConfig{})

	first := a.Assemble(types.Answer{}, nil)
	second := a.Assemble(types.Answer{}, nil)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestBookTitle(t *testing.T) {
	assert.Equal(t, "Mind Power", BookTitle("Mind_Power.pdf"))
	assert.Equal(t, "Notes", BookTitle("Notes.PDF"))
	assert.Equal(t, "", BookTitle(""))
}
