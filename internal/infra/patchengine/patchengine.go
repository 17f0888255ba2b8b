// Package patchengine computes and encodes change sets between directory
// states, and replays them onto a working tree (spec §4.4, component C4).
// It owns the binary-delta chunker used for large files.
package patchengine

import "github.com/benjaminpreiss/git-vault/internal/domain"

// smallFileThreshold is the byte-size cutoff at or below which a changed file is
// always encoded as a full MODIFY rather than considered for BINDIFF
// (spec §4.4 step 4).
const smallFileThreshold = 1024

// mergeGap is the maximum distance between two binary-diff runs before
// they are coalesced into one (spec §4.4 chunker step 2).
const mergeGap = 64

// maxRunLength is the largest single BINDIFF run emitted before it is
// split into sub-runs (spec §4.4 chunker step 3).
const maxRunLength = 1024

// Engine implements domain.PatchEngine. It is stateless; every method
// operates purely on its arguments.
type Engine struct{}

// New returns a ready-to-use Engine.
func New() *Engine { return &Engine{} }

var _ domain.PatchEngine = (*Engine)(nil)
