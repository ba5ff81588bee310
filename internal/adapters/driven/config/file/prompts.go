package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads answer prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation: files are only created when first
// accessed, not in the constructor. An empty directory means embedded
// defaults only, with no disk access at all.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts. Each takes the
// retrieved context and then the question.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptCounting: `Você é um assistente de IA especialista em analisar e contar itens em um texto.

**Tarefa:**
Sua única tarefa é contar o número total de obras literárias listadas no contexto abaixo e fornecer o número exato.

**Instruções Precisas:**
1.  O contexto contém uma lista de obras, separadas por categorias (Romance, Contos, etc.).
2.  Conte cada obra individualmente. Cada linha que começa com um hífen (-) representa uma obra.
3.  **NÃO** conte os nomes das categorias (como "Romance", "Contos") como se fossem obras.
4.  No final, forneça o número total exato. Você pode, opcionalmente, detalhar a contagem por categoria.
5.  Baseie-se **estritamente** na lista fornecida no contexto.

**Contexto:**
---
%s
---

**Pergunta:**
%s

**Análise de Contagem:**`,

	driven.PromptAnswer: `Você é um assistente de IA especialista em analisar documentos. Sua tarefa é responder à pergunta do usuário usando o contexto fornecido.
Baseie sua resposta apenas nos fatos encontrados nos documentos. Se a informação não estiver presente, informe que não encontrou a resposta nos documentos.

Contexto Fornecido:
---
%s
---

Pergunta do Usuário:
%s

Resposta Analítica:`,
}

// NewPromptStore creates a new file-based prompt store.
// An empty promptDir serves the embedded defaults only.
func NewPromptStore(promptDir string) *PromptStore {
	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file doesn't exist or is unusable.
func (s *PromptStore) Load(name string) (string, error) {
	if s.promptDir == "" {
		return defaultPrompt(name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return defaultPrompt(name)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		return defaultPrompt(name)
	}
	if err := checkPlaceholders(prompt); err != nil {
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func defaultPrompt(name string) (string, error) {
	if prompt, ok := defaultPrompts[name]; ok {
		return prompt, nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// checkPlaceholders requires exactly the two string verbs a template is filled with.
func checkPlaceholders(prompt string) error {
	escaped := strings.Count(prompt, "%%")
	if n := strings.Count(prompt, "%s"); n != 2 || strings.Count(prompt, "%")-2*escaped != 2 {
		return fmt.Errorf("expected two %%s placeholders (context, question), found %d", n)
	}
	return nil
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Answer Prompts

- ` + "`answer.txt`" + ` - Answers a question strictly from the retrieved passages
- ` + "`counting.txt`" + ` - Counts the works listed in the passages; chosen when the
  question asks "quantos", "quantidade", "número de" or "liste e conte"

Each prompt takes two ` + "`%s`" + ` placeholders: the retrieved context, then the question.
Write a literal percent sign as ` + "`%%`" + `. Changes take effect on the next command.
`
	return os.WriteFile(path, []byte(content), 0600)
}
