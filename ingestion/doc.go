// Package ingestion turns position statements into persisted, embedded chunks.
//
// A Pipeline processes statements strictly in order. For each statement it
// builds the embedding text and display content, waits on its Throttle, calls
// the embedder, assigns the next chunk index of the statement's scope and
// inserts the chunk. Statements already stored are skipped; a failed statement
// is logged and recorded in the Result while the run continues.
//
// A run stops early only when no later statement can succeed: the corpus is
// invalid, the store cannot report its indices, the embedding credentials are
// rejected, the store is closed, or the context is canceled. The partial
// Result is returned alongside the error.
//
// Chunk indices are resolved once per scope before the first statement
// (max+1, or the start index for an empty scope) and advance only when an
// insert succeeds, so each run appends a contiguous block.
package ingestion
