// Package model defines core types used throughout vecand.
//
// # Identity Types
//
//   - RowID: relation-local row identifier (uint32), the element type of candidate sets
//   - ParamID: executor parameter slot, used for changed-parameter signaling
//
// # Data Types
//
//   - Record: vector with optional metadata, the unit loaded into a catalog
//   - SearchResult: a similarity hit with its distance
package model
