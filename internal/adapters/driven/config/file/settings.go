package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Default file locations, relative to the working directory.
const (
	DefaultConfigFile = "sercha-rag.toml"
	DefaultEnvFile    = ".env"
)

// Environment variables read on top of the config file.
const (
	EnvEmbeddingModel    = "EMBEDDING_MODEL_NAME"
	EnvEmbeddingProvider = "EMBEDDING_PROVIDER"
	EnvDocumentsPath     = "DOCUMENTS_PATH"
	EnvGeneratorModel    = "GENERATOR_MODEL_NAME"
	EnvGeneratorProvider = "GENERATOR_PROVIDER"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvAnthropicKey      = "ANTHROPIC_API_KEY"
	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvQuestionsFile     = "QUESTIONS_FILE"
	EnvIndexRoot         = "INDEX_ROOT"
)

// Loader builds domain.Settings from defaults, a TOML file, a .env file
// and the process environment, each layer overriding the previous one.
type Loader struct {
	configPath string
	envPath    string
	lookup     func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvFile sets the .env file. An empty path skips it.
func WithEnvFile(path string) LoaderOption {
	return func(l *Loader) {
		l.envPath = path
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookup = fn
	}
}

// NewLoader creates a loader for configPath. An empty path uses
// DefaultConfigFile, which may be absent; any other path must exist.
func NewLoader(configPath string, opts ...LoaderOption) *Loader {
	l := &Loader{
		configPath: configPath,
		envPath:    DefaultEnvFile,
		lookup:     os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns validated settings. Every failure wraps domain.ErrConfiguration.
func (l *Loader) Load() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	if err := l.loadFile(&settings); err != nil {
		return settings, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	dotenv, err := l.readEnvFile()
	if err != nil {
		return settings, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	applyEnv(&settings, func(key string) (string, bool) {
		if v, ok := l.lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func (l *Loader) loadFile(settings *domain.Settings) error {
	path := l.configPath
	optional := path == ""
	if optional {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(settings); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%s: %s", path, strict.String())
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	logger.Debug("Loaded config from %s", path)
	return nil
}

func (l *Loader) readEnvFile() (map[string]string, error) {
	if l.envPath == "" {
		return nil, nil
	}
	values, err := godotenv.Read(l.envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", l.envPath, err)
	}
	logger.Debug("Loaded %d variables from %s", len(values), l.envPath)
	return values, nil
}

// applyEnv overlays environment values. API keys go to the provider they
// belong to; a Gemini key alone selects Gemini as the generator.
func applyEnv(s *domain.Settings, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(EnvDocumentsPath, &s.DocumentsPath)
	set(EnvQuestionsFile, &s.QuestionsFile)
	set(EnvIndexRoot, &s.Index.Root)
	set(EnvEmbeddingModel, &s.Embedding.Model)

	var provider string
	set(EnvEmbeddingProvider, &provider)
	if provider != "" {
		s.Embedding.Provider = domain.AIProvider(strings.ToLower(provider))
	}

	provider = ""
	set(EnvGeneratorProvider, &provider)
	if provider != "" {
		s.LLM.Provider = domain.AIProvider(strings.ToLower(provider))
	}
	set(EnvGeneratorModel, &s.LLM.Model)

	if env := APIKeyEnv(s.Embedding.Provider); env != "" {
		set(env, &s.Embedding.APIKey)
	}
	if s.LLM.Provider == "" {
		if v, ok := lookup(EnvGeminiKey); ok && v != "" {
			s.LLM.Provider = domain.AIProviderGemini
		}
	}
	if env := APIKeyEnv(s.LLM.Provider); env != "" {
		set(env, &s.LLM.APIKey)
	}
}

// Save writes settings as TOML, creating parent directories. API keys
// are left out; they belong in the environment.
func Save(path string, settings domain.Settings) error {
	settings.Embedding.APIKey = ""
	settings.LLM.APIKey = ""

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

// APIKeyEnv returns the environment variable holding provider's API key,
// or "" when the provider needs none.
func APIKeyEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return EnvOpenAIKey
	case domain.AIProviderAnthropic:
		return EnvAnthropicKey
	case domain.AIProviderGemini:
		return EnvGeminiKey
	default:
		return ""
	}
}

// SaveEnv sets key in the .env file at path, keeping the other entries.
func SaveEnv(path, key, value string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		values = map[string]string{}
	}
	values[key] = value
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}
