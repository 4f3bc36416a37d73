// Package vecand executes hybrid filter and vector-similarity plans over
// candidate row sets.
//
// A plan is a tree of scans combined by BitmapAnd nodes. Plain scans
// (BitmapIndexScan) evaluate metadata predicates against an inverted index
// and produce roaring-bitmap candidate sets; a BitmapAnd intersects them.
// One child of a BitmapAnd may be a similarity probe (SimilarityScan). The
// probe always runs last, is restricted to the rows the other children
// agreed on, and its top hits replace the intersection.
//
// # Quick Start
//
//	cat := catalog.New()
//	cat.AddMetadataIndex("movies", movies)
//	cat.AddVectorIndex("plots", plots)
//
//	eng, _ := vecand.New(cat, vecand.WithLogLevel(slog.LevelDebug))
//	defer eng.Close()
//
//	p := vecand.And(
//	    vecand.IndexScan("movies").Eq("genre", "noir").Param("year", metadata.OpGreaterEqual, 1).MustBuild(),
//	    vecand.Similar("plots", query).K(10).MustBuild(),
//	).Limit(10).MustBuild()
//
//	q, _ := eng.Prepare(p)
//	defer q.Close()
//
//	q.Bind(ctx, vecand.Params{1: 1950})
//	rows, _ := q.Run(ctx) // *candidate.Set, caller releases
//
//	q.Bind(ctx, vecand.Params{1: 1970}) // rescans only what depends on $1
//	rows, _ = q.Run(ctx)
//
// # Ranked Search
//
// For the common "filter, then nearest neighbors" shape, Search builds and
// runs the plan in one call and returns ranked hits:
//
//	hits, _ := eng.Search("plots", query).
//	    KNN(10).
//	    Where("movies", metadata.Filter{Key: "genre", Operator: metadata.OpEqual, Value: metadata.String("noir")}).
//	    Execute(ctx)
//
// # Snapshots
//
// Engines persist their catalog to any blobstore.Store (local disk, memory,
// S3, MinIO):
//
//	eng.Snapshot(ctx, blobstore.NewLocalStore("./data"))
//	eng, _ = vecand.Open(ctx, s3Store)
package vecand
