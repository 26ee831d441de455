// Package recommend surfaces related links by nearest-neighbor search over
// stored embeddings.
//
// Two entry points exist: Recommend finds links similar to one completed
// link, and RecommendForInterest finds links similar to a time-decayed
// average of recently completed links, approximating the reader's current
// interests.
package recommend
