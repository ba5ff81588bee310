// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - IndexService: builds, loads and removes per-run vector indexes
//   - Retriever: nearest-chunk queries over one attached index
//   - Evaluator: the (size, overlap, k) accuracy sweep
//   - FailureDebugger: a single-configuration diagnostic run
//   - AnswerService: retrieval plus generation with prompt selection
//
// Services are pure Go with no CGO or external dependencies.
package services
