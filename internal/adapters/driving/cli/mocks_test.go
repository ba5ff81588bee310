package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockServices is a test double for Services.
type mockServices struct {
	settings  domain.Settings
	warnings  []string
	indexer   *mockIndexer
	evaluator *mockEvaluator
	debugger  *mockDebugger
	retriever *mockRetriever
	answers   *mockAnswers

	reuse        bool
	observe      func(domain.SweepEvent)
	retrieverRun domain.IndexRun
	closed       bool

	refreshes  int
	refreshErr error
	changes    chan []string
	watchErr   error
}

func newMockServices() *mockServices {
	settings := domain.DefaultSettings()
	settings.Embedding.Model = "lexical-hash"
	settings.Index.Root = "indexes"

	return &mockServices{
		settings:  settings,
		indexer:   &mockIndexer{},
		evaluator: &mockEvaluator{},
		debugger:  &mockDebugger{},
		retriever: &mockRetriever{},
		answers:   &mockAnswers{},
	}
}

func (m *mockServices) Settings() domain.Settings         { return m.settings }
func (m *mockServices) Warnings() []string                { return m.warnings }
func (m *mockServices) Indexer() driving.IndexService     { return m.indexer }
func (m *mockServices) Debugger() driving.FailureDebugger { return m.debugger }
func (m *mockServices) Answers() driving.AnswerService    { return m.answers }

func (m *mockServices) Evaluator(reuse bool, observe func(domain.SweepEvent)) driving.Evaluator {
	m.reuse = reuse
	m.observe = observe
	return m.evaluator
}

func (m *mockServices) Retriever(run domain.IndexRun) driving.Retriever {
	m.retrieverRun = run
	return m.retriever
}

func (m *mockServices) Refresh(_ context.Context) error {
	m.refreshes++
	return m.refreshErr
}

func (m *mockServices) WatchCorpus(_ context.Context) (<-chan []string, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	if m.changes == nil {
		m.changes = make(chan []string)
	}
	return m.changes, nil
}

func (m *mockServices) Close() error {
	m.closed = true
	return nil
}

// mockIndexer is a test double for driving.IndexService.
type mockIndexer struct {
	runs      []domain.IndexRun
	removed   []domain.IndexRun
	setupRun  domain.IndexRun
	setupOpts driving.SetupOptions
	setupErr  error
	count     int
}

func (m *mockIndexer) Build(_ context.Context, _ domain.IndexRun, _ []domain.Chunk) (driven.VectorIndex, error) {
	return &mockIndex{count: m.count}, nil
}

func (m *mockIndexer) Load(_ context.Context, _ domain.IndexRun) (driven.VectorIndex, error) {
	return &mockIndex{count: m.count}, nil
}

func (m *mockIndexer) Setup(_ context.Context, run domain.IndexRun, opts driving.SetupOptions) (driven.VectorIndex, error) {
	m.setupRun = run
	m.setupOpts = opts
	if m.setupErr != nil {
		return nil, m.setupErr
	}
	return &mockIndex{count: m.count}, nil
}

func (m *mockIndexer) Chunks(_ context.Context, _ domain.IndexRun) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockIndexer) Remove(run domain.IndexRun) error {
	m.removed = append(m.removed, run)
	return nil
}

func (m *mockIndexer) List() ([]domain.IndexRun, error) {
	return m.runs, nil
}

// mockIndex is a test double for driven.VectorIndex.
type mockIndex struct {
	count int
}

func (m *mockIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) { return m.count, nil }
func (m *mockIndex) Close() error                         { return nil }

// mockEvaluator is a test double for driving.Evaluator.
type mockEvaluator struct {
	grid    driving.SweepGrid
	results []domain.EvaluationResult
	err     error
}

func (m *mockEvaluator) Evaluate(_ context.Context, grid driving.SweepGrid) ([]domain.EvaluationResult, error) {
	m.grid = grid
	return m.results, m.err
}

// mockDebugger is a test double for driving.FailureDebugger.
type mockDebugger struct {
	run    domain.IndexRun
	k      int
	report *domain.DebugReport
	err    error
}

func (m *mockDebugger) Debug(_ context.Context, run domain.IndexRun, k int) (*domain.DebugReport, error) {
	m.run = run
	m.k = k
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

// mockRetriever is a test double for driving.Retriever.
type mockRetriever struct {
	run      domain.IndexRun
	chunks   []domain.Chunk
	readyErr error
	query    string
	k        int
}

func (m *mockRetriever) EnsureReady(_ context.Context) error { return m.readyErr }

func (m *mockRetriever) Retrieve(_ context.Context, query string, k int) ([]domain.Chunk, error) {
	m.query = query
	m.k = k
	return m.chunks, nil
}

func (m *mockRetriever) Run() domain.IndexRun { return m.run }
func (m *mockRetriever) Close() error         { return nil }

// mockAnswers is a test double for driving.AnswerService.
type mockAnswers struct {
	questions []string
	err       error
}

func (m *mockAnswers) Ask(_ context.Context, question string) (*driving.Answer, error) {
	m.questions = append(m.questions, question)
	if m.err != nil {
		return nil, m.err
	}
	return &driving.Answer{
		Question: question,
		Text:     "Chechelnyk, na Ucrânia.",
		Template: driven.PromptAnswer,
		Sources:  []string{"Clarice Lispector > Biografia"},
	}, nil
}

// setupTestServices installs mock services and returns them with a cleanup.
func setupTestServices() (*mockServices, func()) {
	m := newMockServices()
	prevServices, prevOwns := services, ownsServices
	services = m
	ownsServices = false
	return m, func() {
		services = prevServices
		ownsServices = prevOwns
	}
}

// runCommand executes the root command with args and fresh flag state.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil) //nolint:errcheck
		} else {
			f.Value.Set(f.DefValue) //nolint:errcheck
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
