// Package batch provides helpers for tools that accept one ID or many.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Running the per-item calls concurrently with a bounded fan-out
//   - Formatting batch results with partial failures in one structure
package batch
