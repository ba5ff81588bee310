// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Normaliser, NormaliserRegistry: Turn input files into Documents
//   - CorpusSource: Loads every Document of the input directory
//   - PipelineBuilder: Builds the chunking pipeline for one index run
//   - EmbeddingService: Generates vector embeddings
//   - IndexStore, IndexWriter, VectorIndex: Per-run index artifacts
//   - QuestionSource: The evaluation question set
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, answers degrade to the fixed apology.
//   - PromptStore, PromptPolicy: Prompt templates and their selection.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
