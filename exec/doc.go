// Package exec runs plan trees built by package plan.
//
// Execution is pull based. InitNode turns a plan into a tree of Nodes,
// MultiExec asks a node for its candidate set, ReScan prepares a node for
// re-execution after parameter changes and EndNode releases it.
//
// # BitmapAnd
//
// BitmapAnd intersects the candidate sets of its children. One child may be a
// SimilarityProbe. That child always runs last. When the plan attaches a
// similarity clause, the probe is bounded by the plan limit and filtered
// against the candidates gathered so far, and its output replaces the
// accumulated set instead of being intersected with it:
//
//	and := &plan.BitmapAnd{
//	    Limit:      10,
//	    Similarity: &plan.SimilarityClause{},
//	    Children: []plan.Node{
//	        &plan.SimilarityScan{Index: "plots", Query: q, K: 10},
//	        &plan.BitmapIndexScan{Index: "movies", Filters: filters},
//	    },
//	}
//	node, err := exec.InitNode(and, state, 0)
//	if err != nil { ... }
//	defer exec.EndNode(node)
//	res, err := exec.MultiExec(ctx, node)
//
// Nodes are not safe for concurrent use. A tree may be executed many times
// sequentially.
package exec
