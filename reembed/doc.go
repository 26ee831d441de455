// Package reembed regenerates embeddings for completed links.
//
// Switching embedding models invalidates every stored vector; this package
// walks all completed links in batches, embeds their summaries with the
// current embedder and overwrites the stored vectors in place. Link records
// themselves are untouched.
package reembed
