// Package sqlite provides a SQLite-backed implementation of driven.IndexStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each index run owns one database at
//
//	<root>/db_size_{S}_overlap_{O}/index.db
//
// holding the chunks, their embeddings as little-endian float32 blobs, and an
// index_meta table. A database only opens for querying once its writer has
// committed and set complete=1, so a crashed build never looks loadable.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// Queries are exact: every stored vector is scored by cosine similarity.
// Vectors are loaded into memory on the first search.
package sqlite
