// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants retrieve context from the evaluated indexes and
// ask questions through the answer pipeline.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")
