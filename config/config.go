package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tieubaoca/wisdom-rag/types"
)

type Config struct {
	Port             string              `mapstructure:"port"`
	UploadDir        string              `mapstructure:"upload_dir"`
	DocumentsBaseURL string              `mapstructure:"documents_base_url"`
	MaxUploadBytes   int64               `mapstructure:"max_upload_bytes"`
	RequestTimeout   time.Duration       `mapstructure:"request_timeout"`
	Presets          []string            `mapstructure:"presets"`
	Log              LogConfig           `mapstructure:"log"`
	Extraction       ExtractionConfig    `mapstructure:"extraction"`
	Chunker          types.ChunkerConfig `mapstructure:"chunker"`
	Embedding        EmbeddingConfig     `mapstructure:"embedding"`
	Generation       GenerationConfig    `mapstructure:"generation"`
	VectorStore      VectorStoreConfig   `mapstructure:"vector_store"`
	Answer           AnswerConfig        `mapstructure:"answer"`
	JobStore         JobStoreConfig      `mapstructure:"job_store"`
	Jobs             JobConfig           `mapstructure:"jobs"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type ExtractionConfig struct {
	Provider   string           `mapstructure:"provider"` // documentai or pdf
	DocumentAI DocumentAIConfig `mapstructure:"document_ai"`
}

type DocumentAIConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	Location        string `mapstructure:"location"`
	ProcessorID     string `mapstructure:"processor_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type EmbeddingConfig struct {
	Provider          string        `mapstructure:"provider"` // sbert, openai or gemini
	SBERTURL          string        `mapstructure:"sbert_url"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type GenerationConfig struct {
	Provider    string   `mapstructure:"provider"` // openai or gemini
	BaseURL     string   `mapstructure:"base_url"`
	APIKey      string   `mapstructure:"api_key"`
	GeminiKeys  []string `mapstructure:"gemini_keys"`
	Model       string   `mapstructure:"model"`
	Temperature float32  `mapstructure:"temperature"`
}

type VectorStoreConfig struct {
	Provider         string        `mapstructure:"provider"` // weaviate, qdrant or memory
	Host             string        `mapstructure:"host"`
	APIKey           string        `mapstructure:"api_key"`
	Collection       string        `mapstructure:"collection"`
	DefaultDimension int           `mapstructure:"default_dimension"`
	Metric           string        `mapstructure:"metric"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type AnswerConfig struct {
	TopK                int     `mapstructure:"top_k"`
	ConfidenceThreshold float32 `mapstructure:"confidence_threshold"`
	DefaultBook         string  `mapstructure:"default_book"`
	DefaultChapter      string  `mapstructure:"default_chapter"`
}

type JobStoreConfig struct {
	Provider string `mapstructure:"provider"` // mongo or memory
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type JobConfig struct {
	PollMaxAttempts  int           `mapstructure:"poll_max_attempts"`
	PollInitialDelay time.Duration `mapstructure:"poll_initial_delay"`
	PollMaxDelay     time.Duration `mapstructure:"poll_max_delay"`
	PollTimeout      time.Duration `mapstructure:"poll_timeout"`
}

var DefaultPresets = []string{
	"I have exam stress and only 10 days left",
	"I feel anxious about a career decision",
	"I feel inferiority complex in college",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("request_timeout", 2*time.Minute)
	v.SetDefault("presets", DefaultPresets)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("extraction.provider", "documentai")
	v.SetDefault("extraction.document_ai.location", "us")

	v.SetDefault("chunker.max_words", 500)
	v.SetDefault("chunker.min_words", 300)

	v.SetDefault("embedding.provider", "sbert")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("embedding.max_retries", 2)
	v.SetDefault("embedding.requests_per_second", 10)
	v.SetDefault("embedding.burst", 5)

	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.base_url", "https://api.openai.com/v1")
	v.SetDefault("generation.model", "gpt-3.5-turbo")
	v.SetDefault("generation.temperature", 0.3)

	v.SetDefault("vector_store.provider", "weaviate")
	v.SetDefault("vector_store.host", "http://localhost:8080")
	v.SetDefault("vector_store.collection", "Manashakti")
	v.SetDefault("vector_store.default_dimension", 384)
	v.SetDefault("vector_store.metric", types.MetricCosine)
	v.SetDefault("vector_store.timeout", 15*time.Second)

	v.SetDefault("answer.top_k", 5)
	v.SetDefault("answer.confidence_threshold", 0.5)
	v.SetDefault("answer.default_book", "Unknown")
	v.SetDefault("answer.default_chapter", "Unknown")

	v.SetDefault("job_store.provider", "memory")
	v.SetDefault("job_store.database", "wisdom")

	v.SetDefault("jobs.poll_max_attempts", 30)
	v.SetDefault("jobs.poll_initial_delay", 500*time.Millisecond)
	v.SetDefault("jobs.poll_max_delay", 5*time.Second)
	v.SetDefault("jobs.poll_timeout", 2*time.Minute)
}

// LoadConfig reads configPath (yaml) and the environment. An empty configPath
// loads defaults and environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set up Viper to read from environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Secrets keep the names the deployment already uses
	v.BindEnv("generation.api_key", "OPENAI_API_KEY")
	v.BindEnv("embedding.api_key", "EMBEDDING_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("embedding.sbert_url", "SBERT_EMBEDDING_URL")
	v.BindEnv("generation.gemini_keys", "GOOGLE_API_KEYS")
	v.BindEnv("vector_store.api_key", "WEAVIATE_APIKEY", "QDRANT_API_KEY")
	v.BindEnv("vector_store.collection", "QDRANT_COLLECTION", "VECTOR_COLLECTION")
	v.BindEnv("extraction.document_ai.project_id", "GOOGLE_PROJECT_ID")
	v.BindEnv("extraction.document_ai.processor_id", "GOOGLE_DOCUMENT_AI_PROCESSOR_ID")
	v.BindEnv("extraction.document_ai.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("job_store.uri", "MONGODB_URI")
	v.BindEnv("port", "PORT")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if len(config.Generation.GeminiKeys) == 1 && strings.Contains(config.Generation.GeminiKeys[0], ",") {
		config.Generation.GeminiKeys = strings.Split(config.Generation.GeminiKeys[0], ",")
	}

	return &config, nil
}

// Validate checks the settings every request path depends on. Document AI
// settings are checked when a document is extracted, not here.
func (c *Config) Validate() error {
	var missing []string

	switch c.Embedding.Provider {
	case "sbert":
		if c.Embedding.SBERTURL == "" {
			missing = append(missing, "embedding.sbert_url (SBERT_EMBEDDING_URL)")
		}
	case "openai":
		if c.Embedding.APIKey == "" {
			missing = append(missing, "embedding.api_key")
		}
	case "gemini":
		if len(c.Generation.GeminiKeys) == 0 {
			missing = append(missing, "generation.gemini_keys (GOOGLE_API_KEYS)")
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", types.ErrConfiguration, c.Embedding.Provider)
	}

	switch c.Generation.Provider {
	case "openai":
		if c.Generation.APIKey == "" {
			missing = append(missing, "generation.api_key (OPENAI_API_KEY)")
		}
	case "gemini":
		if len(c.Generation.GeminiKeys) == 0 {
			missing = append(missing, "generation.gemini_keys (GOOGLE_API_KEYS)")
		}
	default:
		return fmt.Errorf("%w: unknown generation provider %q", types.ErrConfiguration, c.Generation.Provider)
	}

	switch c.VectorStore.Provider {
	case "weaviate", "qdrant":
		if c.VectorStore.Host == "" {
			missing = append(missing, "vector_store.host")
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown vector store provider %q", types.ErrConfiguration, c.VectorStore.Provider)
	}
	if c.VectorStore.Collection == "" {
		missing = append(missing, "vector_store.collection")
	}

	if c.JobStore.Provider == "mongo" && c.JobStore.URI == "" {
		missing = append(missing, "job_store.uri (MONGODB_URI)")
	}

	if c.Chunker.MaxWords <= 0 {
		return fmt.Errorf("%w: chunker.max_words must be positive", types.ErrConfiguration)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", types.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}
