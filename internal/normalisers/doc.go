// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser turns the bytes of one
// input file into a Document with a section tree.
//
// Normalisers are registered with a Registry at startup. Shared helpers for
// building documents and section outlines live here; formats live in
// subpackages.
package normalisers
