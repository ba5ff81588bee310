// Package driving declares what the command line, the HTTP API, the MCP
// server and the explorer may ask of the core: index runs, retrieval,
// answers, the evaluation sweep and failure debugging.
//
// internal/core/services implements every interface here; adapters under
// internal/adapters/driving only ever see these types.
package driving
