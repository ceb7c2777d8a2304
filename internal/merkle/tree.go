// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle implements spec.md §4.C: a binary Merkle tree over a
// peer's game-state records, inclusion proofs, and the multi-phase
// divergence-detection and sync protocol built on top of it.
//
// Grounded on original_source/src/protocol/sync/merkle.rs for the tree
// shape (unpaired right sibling promoted, not duplicated) and on the
// teacher's poll/ package for the general "compare local view against
// peer, converge" idiom, adapted from validator-set polling to
// state-record reconciliation.
package merkle

import (
	"github.com/luxfi/dicemesh/internal/types"
	"github.com/luxfi/dicemesh/internal/xcrypto"
)

// Tree is an immutable binary Merkle tree over an ordered list of leaves.
type Tree struct {
	levels [][]types.Hash256 // levels[0] = leaves, levels[len-1] = root
}

// Leaf hashes a single record into a leaf hash, domain-separated from
// internal nodes by a leading 0x00 byte (§4.C).
func Leaf(record []byte) types.Hash256 {
	return xcrypto.SumSHA256([]byte{0x00}, record)
}

func parent(left, right types.Hash256) types.Hash256 {
	return xcrypto.SumSHA256([]byte{0x01}, left[:], right[:])
}

// Build constructs a Tree from already-hashed leaves, in the order given.
// An empty leaf set produces a Tree whose Root is the zero hash.
func Build(leaves []types.Hash256) *Tree {
	if len(leaves) == 0 {
		return &Tree{levels: [][]types.Hash256{{{}}}}
	}
	levels := [][]types.Hash256{append([]types.Hash256(nil), leaves...)}
	cur := levels[0]
	for len(cur) > 1 {
		next := make([]types.Hash256, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, parent(cur[i], cur[i+1]))
			} else {
				// Unpaired right sibling is promoted unchanged, not
				// duplicated — avoids the classic second-preimage
				// ambiguity of duplicating the last leaf.
				next = append(next, cur[i])
			}
		}
		levels = append(levels, next)
		cur = next
	}
	return &Tree{levels: levels}
}

// Root returns the tree's root hash.
func (t *Tree) Root() types.Hash256 {
	return t.levels[len(t.levels)-1][0]
}

// Depth returns the number of levels, including the leaf level and root.
func (t *Tree) Depth() int { return len(t.levels) }

// NodesAt returns the hashes at the given level (0 = leaves).
func (t *Tree) NodesAt(level int) []types.Hash256 {
	if level < 0 || level >= len(t.levels) {
		return nil
	}
	return t.levels[level]
}

// Proof is an inclusion proof: the sibling hash at each level from the leaf
// up to (excluding) the root, plus a flag for whether the sibling is on
// the left.
type Proof struct {
	LeafIndex int
	Siblings  []ProofStep
}

type ProofStep struct {
	Hash   types.Hash256
	IsLeft bool
}

// ErrLeafIndexOutOfRange is returned by Prove for an index beyond the leaf
// count.
var ErrLeafIndexOutOfRange = leafRangeError{}

type leafRangeError struct{}

func (leafRangeError) Error() string { return "merkle leaf index out of range" }

// Prove builds an inclusion proof for the leaf at index.
func (t *Tree) Prove(index int) (Proof, error) {
	leaves := t.levels[0]
	if index < 0 || index >= len(leaves) {
		return Proof{}, ErrLeafIndexOutOfRange
	}
	p := Proof{LeafIndex: index}
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		isRightChild := idx%2 == 1
		siblingIdx := idx - 1
		if !isRightChild {
			siblingIdx = idx + 1
		}
		if siblingIdx >= len(nodes) {
			// This node was the unpaired promotion; it contributes no
			// sibling step at this level.
			idx /= 2
			continue
		}
		p.Siblings = append(p.Siblings, ProofStep{Hash: nodes[siblingIdx], IsLeft: isRightChild})
		idx /= 2
	}
	return p, nil
}

// Verify checks that leaf, following proof, reconstructs root.
func Verify(leaf types.Hash256, proof Proof, root types.Hash256) bool {
	cur := leaf
	for _, step := range proof.Siblings {
		if step.IsLeft {
			cur = parent(step.Hash, cur)
		} else {
			cur = parent(cur, step.Hash)
		}
	}
	return cur == root
}
