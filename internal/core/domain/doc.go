// Package domain holds the evaluation harness's data model.
//
// A Document is parsed from one input file into nested sections. Each
// section is flattened into a TitledBlock that carries its document title
// and section path, and blocks are cut into overlapping Chunks. An
// IndexRun names one (chunk_size, chunk_overlap) pair and the directory
// its vector index lives in. EvaluationQuestion and EvaluationResult are
// the sweep's input and output.
//
// The package imports only the standard library; every other internal
// package may import it.
package domain
