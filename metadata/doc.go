// Package metadata provides typed row attributes and an inverted index over
// them that answers predicate probes with candidate sets.
//
// The index keeps, per field and per distinct value, a Roaring Bitmap posting
// list. Equality and IN probes read postings directly; range probes union the
// postings of every qualifying value.
//
//	idx := metadata.NewIndex()
//	idx.Set(1, metadata.Document{"category": metadata.String("tech"), "year": metadata.Int(2024)})
//
//	set, err := idx.Evaluate(metadata.NewFilterSet(
//	    metadata.Filter{Key: "category", Operator: metadata.OpEqual, Value: metadata.String("tech")},
//	), 0)
package metadata
