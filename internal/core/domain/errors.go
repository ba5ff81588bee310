package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Evaluation Errors.

	// ErrConfiguration indicates a missing or invalid required setting.
	// It is fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidParameter indicates an unusable chunking parameter pair.
	// The sweep skips the pair and continues.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrBuild indicates an index could not be constructed.
	// The sweep skips the configuration and continues.
	ErrBuild = errors.New("index build failed")

	// ErrRetrievalUnavailable indicates no index is attached to a retriever.
	// Retrieval degrades to an empty result instead of returning it.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationFailure indicates the generation service failed or
	// refused to answer.
	ErrGenerationFailure = errors.New("generation failed")
)

// GenerationFailureAnswer is returned in place of an answer when
// generation fails.
const GenerationFailureAnswer = "Não foi possível gerar uma resposta para esta pergunta."
