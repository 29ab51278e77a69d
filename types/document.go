package types

const (
	LanguageEnglish = "en"
	LanguageMarathi = "mr"
)

const (
	ChunkTypeDocumentAI = "document_ai"
	ChunkTypePDFText    = "pdf_text"
)

// Document is an uploaded file waiting to be ingested. It is consumed entirely
// by ingestion and never stored.
type Document struct {
	Name     string // Display name, used as the chunk source
	MimeType string // Declared media type
	Content  []byte // Raw bytes
}

// Page holds the raw text of one page of a document.
type Page struct {
	PageNumber int
	Text       string
}

// Chunk is the unit of text that is embedded, indexed and retrieved.
type Chunk struct {
	ID       string
	Text     string
	Source   string
	Page     int
	Language string
	Type     string
}

// ChunkerConfig contains the word bounds used when splitting pages into chunks
type ChunkerConfig struct {
	MaxWords int `mapstructure:"max_words"` // Hard ceiling per chunk
	MinWords int `mapstructure:"min_words"` // Advisory only, never enforced
}

// Payload returns the metadata stored next to the chunk vector.
func (c Chunk) Payload() ChunkPayload {
	return ChunkPayload{
		Text:     c.Text,
		Source:   c.Source,
		Page:     c.Page,
		Language: c.Language,
		Type:     c.Type,
	}
}

func IsSupportedLanguage(lang string) bool {
	return lang == LanguageEnglish || lang == LanguageMarathi
}

type IngestResult struct {
	FileName      string `json:"fileName"`
	ChunksIndexed int    `json:"chunksIndexed"`
	JobID         string `json:"jobId,omitempty"`
}
