// Package distance scores vectors for similarity scans. Every Func returns
// smaller values for closer vectors, so a probe can rank by ascending score
// whatever the metric:
//
//	l2      squared Euclidean distance
//	cosine  1 - cosine similarity
//	dot     negated inner product
//
// Metrics parse from and marshal to these names, which is how vector index
// options appear in query files and snapshots.
package distance
