package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tieubaoca/wisdom-rag/types"
)

const (
	DefaultMaxWords = 500
	DefaultMinWords = 300
)

// Chunker splits page text into word bounded chunks. Chunks never span two
// pages. MinWords is advisory: a short tail chunk is still emitted.
type Chunker struct {
	maxWords int
	minWords int
	newID    func() string
}

func NewChunker(cfg types.ChunkerConfig) *Chunker {
	maxWords := cfg.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	minWords := cfg.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return &Chunker{
		maxWords: maxWords,
		minWords: minWords,
		newID:    uuid.NewString,
	}
}

func (c *Chunker) MaxWords() int { return c.maxWords }

// MinWords is the configured lower bound. It is advisory and never enforced.
func (c *Chunker) MinWords() int { return c.minWords }

// Chunk cleans every page and emits a chunk each time maxWords words have
// accumulated, plus one chunk for the remainder of the page.
func (c *Chunker) Chunk(pages []types.Page, sourceName, chunkType string) []types.Chunk {
	var chunks []types.Chunk
	for _, page := range pages {
		text := CleanText(page.Text)
		if text == "" {
			continue
		}

		words := strings.Split(text, " ")
		for start := 0; start < len(words); start += c.maxWords {
			end := start + c.maxWords
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, types.Chunk{
				ID:       c.newID(),
				Text:     strings.Join(words[start:end], " "),
				Source:   sourceName,
				Page:     page.PageNumber,
				Language: types.LanguageEnglish,
				Type:     chunkType,
			})
		}
	}
	return chunks
}
