// Package candidate provides the candidate set: a compressed set of row
// identifiers produced by index probes and combined by executor nodes.
//
// Sets are backed by Roaring Bitmaps and pooled. Ownership is explicit: the
// producer of a set hands it to its consumer, and the final owner calls
// Release exactly once.
//
//	acc := candidate.New(workMem)
//	acc.AddMany([]model.RowID{1, 3, 5})
//
//	other := candidate.FromIDs(3, 5, 9)
//	acc.And(other)
//	other.Release()
//
//	if acc.IsEmpty() {
//	    // short-circuit
//	}
package candidate
