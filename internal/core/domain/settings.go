package domain

import (
	"errors"
	"fmt"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the in-process lexical embedder. It has no LLM.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (lexical hashing, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint override.
	BaseURL string `toml:"base_url"`

	// APIKey is the API key (for OpenAI).
	APIKey string `toml:"api_key"`

	// RequestsPerSecond throttles remote embedding calls. Zero disables.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the LLM model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint override.
	BaseURL string `toml:"base_url"`

	// APIKey is the API key (for OpenAI/Anthropic/Gemini).
	APIKey string `toml:"api_key"`

	// MaxTokens caps the generated answer length.
	MaxTokens int `toml:"max_tokens"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkStrategy selects how block text is split into chunks.
type ChunkStrategy string

// Available chunk strategies.
const (
	// ChunkStrategyWindow cuts exact fixed-size character windows.
	ChunkStrategyWindow ChunkStrategy = "window"

	// ChunkStrategyRecursive prefers paragraph, line and word boundaries.
	ChunkStrategyRecursive ChunkStrategy = "recursive"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkStrategy) IsValid() bool {
	return s == ChunkStrategyWindow || s == ChunkStrategyRecursive
}

// IndexBackend selects where index runs are stored.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendSQLite stores each run as an SQLite file on disk.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendMemory keeps runs in process memory.
	IndexBackendMemory IndexBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendSQLite || b == IndexBackendMemory
}

// IndexSettings configures chunking and index storage.
type IndexSettings struct {
	// Root is the directory holding db_size_*_overlap_* runs.
	Root string `toml:"root"`

	// Backend is the index storage implementation.
	Backend IndexBackend `toml:"backend"`

	// Strategy is the chunk splitting strategy.
	Strategy ChunkStrategy `toml:"strategy"`

	// ChunkSize is the default chunk size for retrieval and answering.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the default chunk overlap for retrieval and answering.
	ChunkOverlap int `toml:"chunk_overlap"`

	// BatchSize is how many chunks are embedded per request.
	BatchSize int `toml:"batch_size"`
}

// Run returns the default IndexRun.
func (s IndexSettings) Run() IndexRun {
	return IndexRun{ChunkSize: s.ChunkSize, ChunkOverlap: s.ChunkOverlap}
}

// SweepSettings lists the parameter grid for an evaluation sweep.
type SweepSettings struct {
	ChunkSizes    []int `toml:"chunk_sizes"`
	ChunkOverlaps []int `toml:"chunk_overlaps"`
	TopK          []int `toml:"top_k"`
}

// DebugSettings is the single configuration inspected by the debugger.
type DebugSettings struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	K            int `toml:"k"`
}

// Run returns the IndexRun of the debug configuration.
func (s DebugSettings) Run() IndexRun {
	return IndexRun{ChunkSize: s.ChunkSize, ChunkOverlap: s.ChunkOverlap}
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string `toml:"addr"`
}

// Settings holds all application settings. It is built once at startup
// and passed to every component constructor.
type Settings struct {
	// DocumentsPath is the input directory walked for documents.
	DocumentsPath string `toml:"documents_path"`

	// QuestionsFile is the evaluation question set (JSON or YAML).
	QuestionsFile string `toml:"questions_file"`

	// PromptDir holds user-editable prompt templates.
	PromptDir string `toml:"prompt_dir"`

	// TopK is the default number of chunks retrieved for answers.
	TopK int `toml:"top_k"`

	Embedding EmbeddingSettings `toml:"embedding"`
	LLM       LLMSettings       `toml:"llm"`
	Index     IndexSettings     `toml:"index"`
	Sweep     SweepSettings     `toml:"sweep"`
	Debug     DebugSettings     `toml:"debug"`
	Server    ServerSettings    `toml:"server"`
}

// DefaultTopK is the number of chunks retrieved for answers when unset.
const DefaultTopK = 5

// DefaultSettings returns settings with sensible defaults.
// The embedding model is left empty and must be configured.
func DefaultSettings() Settings {
	return Settings{
		DocumentsPath: "data",
		QuestionsFile: "evaluation_questions.json",
		TopK:          DefaultTopK,
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
		},
		LLM: LLMSettings{
			MaxTokens: 1024,
		},
		Index: IndexSettings{
			Root:         ".",
			Backend:      IndexBackendSQLite,
			Strategy:     ChunkStrategyWindow,
			ChunkSize:    1000,
			ChunkOverlap: 200,
			BatchSize:    32,
		},
		Sweep: SweepSettings{
			ChunkSizes:    []int{5, 10, 25, 50, 100, 250, 500, 750, 1000},
			ChunkOverlaps: []int{3, 5, 10, 25, 50, 100, 150, 200, 350, 500},
			TopK:          []int{3, 5, 7, 10},
		},
		Debug: DebugSettings{
			ChunkSize:    250,
			ChunkOverlap: 150,
			K:            5,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// Validate checks required fields. Every returned error wraps ErrConfiguration.
func (s Settings) Validate() error {
	var errs []error

	if s.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding model name is required (EMBEDDING_MODEL_NAME)"))
	}
	if !s.Embedding.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", s.Embedding.Provider))
	} else if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		errs = append(errs, fmt.Errorf("embedding provider %s requires an API key", s.Embedding.Provider))
	}
	if s.Embedding.Provider == AIProviderAnthropic || s.Embedding.Provider == AIProviderGemini {
		errs = append(errs, fmt.Errorf("%s does not provide embeddings", s.Embedding.Provider))
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("unknown generator provider %q", s.LLM.Provider))
	}
	if s.DocumentsPath == "" {
		errs = append(errs, errors.New("documents path is required (DOCUMENTS_PATH)"))
	}
	if !s.Index.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("unknown index backend %q", s.Index.Backend))
	}
	if !s.Index.Strategy.IsValid() {
		errs = append(errs, fmt.Errorf("unknown chunk strategy %q", s.Index.Strategy))
	}
	if err := s.Index.Run().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("index: %w", err))
	}
	if err := s.Debug.Run().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("debug: %w", err))
	}
	if s.TopK <= 0 || s.Debug.K <= 0 {
		errs = append(errs, errors.New("top_k values must be positive"))
	}
	if len(s.Sweep.ChunkSizes) == 0 || len(s.Sweep.ChunkOverlaps) == 0 || len(s.Sweep.TopK) == 0 {
		errs = append(errs, errors.New("sweep grid must not be empty"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "lexical-hash",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
