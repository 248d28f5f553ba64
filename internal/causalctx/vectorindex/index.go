// Package vectorindex provides nearest-Contextoid lookup over Datoid
// payload embeddings, using chromem-go purely as a local cosine-similarity
// index (no network embedding calls — the core engine performs no I/O,
// spec §6). It is adapted from the teacher's internal/knowledge/vector_store.go,
// which called out to an external Embedder; here the caller supplies the
// embedding vector directly via chromem.Document.Embedding, so the index
// never leaves the process.
//
// This backs an alternative ContextualLink resolution strategy: instead of
// the exact (ContextID, NodeID) pair produced by a Causaloid function, a
// caller may ask "which Contextoid is nearest to this evidence vector" and
// synthesize the link from the answer.
package vectorindex

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "contextoids"

// Index is an in-memory nearest-neighbor index over Contextoid ids.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// New creates an empty, in-memory vector index. No embedding function is
// registered with the collection — every document supplies its own
// precomputed Embedding, the same "nil embedding func" pattern the teacher
// uses in internal/knowledge/vector_store.go because it, too, always
// supplies embeddings explicitly.
func New() (*Index, error) {
	db := chromem.NewDB()
	coll, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create vector index collection: %w", err)
	}
	return &Index{db: db, collection: coll}, nil
}

// Add indexes a Contextoid id under a precomputed embedding vector.
func (idx *Index) Add(ctx context.Context, contextoidID string, embedding []float32) error {
	doc := chromem.Document{
		ID:        contextoidID,
		Embedding: embedding,
	}
	if err := idx.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("index contextoid %s: %w", contextoidID, err)
	}
	return nil
}

// Nearest returns up to k Contextoid ids ordered by descending cosine
// similarity to query.
func (idx *Index) Nearest(ctx context.Context, query []float32, k int) ([]string, error) {
	if k <= 0 {
		k = 1
	}
	results, err := idx.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("nearest contextoid query: %w", err)
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids, nil
}
