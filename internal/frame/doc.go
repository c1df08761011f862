// Package frame is component C: the reference-frame tree
// (spec.md §3.1/§3.2/§4.C), grounded on referenceFrame.h
// (_examples/original_source/source/physics/kinematics/referenceFrame.h).
//
// A Frame is a node in an ordered tree, owned exclusively by its parent —
// destroying a Frame destroys its subtree. Each Frame carries a map of
// named State variants ("perturbation states" in the original)
// keyed by a state tag, defaulting to "default". Motion states (component
// D) register themselves with a Frame as Attachable so that a mutation on
// an ancestor frame can push a cache-invalidation notification down the
// subtree, and so subtree destruction can clear the motion state's
// back-reference without destroying the motion state itself (spec.md §5).
//
// Concurrency: spec.md §5 allows concurrent readers with an exclusive
// writer per frame. Each Frame carries its own sync.RWMutex; transforms and
// name lookups take the read lock, mutating operations take the write
// lock.
package frame
